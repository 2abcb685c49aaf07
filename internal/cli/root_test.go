package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI the way main does and captures both streams.
func execute(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	code = Execute(context.Background(), args, out, errOut)
	return out.String(), errOut.String(), code
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pyken", cmd.Use)
	assert.Contains(t, cmd.Long, "Aiken")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"build", "check", "ir", "report"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestBuildCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	buildCmd, _, err := cmd.Find([]string{"build"})
	require.NoError(t, err)

	outFlag := buildCmd.Flags().Lookup("out")
	require.NotNil(t, outFlag)
	assert.Equal(t, "o", outFlag.Shorthand)
	assert.Equal(t, "validators", outFlag.DefValue)

	for _, name := range []string{"strict", "jobs", "config", "report"} {
		assert.NotNil(t, buildCmd.Flags().Lookup(name), name)
	}
}

func TestCheckCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	checkCmd, _, err := cmd.Find([]string{"check"})
	require.NoError(t, err)

	assert.Nil(t, checkCmd.Flags().Lookup("out"), "check never writes")
	for _, name := range []string{"strict", "jobs", "config", "report"} {
		assert.NotNil(t, checkCmd.Flags().Lookup(name), name)
	}
}

func TestReportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	reportCmd, _, err := cmd.Find([]string{"report"})
	require.NoError(t, err)

	runFlag := reportCmd.Flags().Lookup("run")
	require.NotNil(t, runFlag)
	assert.Equal(t, "", runFlag.DefValue)

	listFlag := reportCmd.Flags().Lookup("list")
	require.NotNil(t, listFlag)
	assert.Equal(t, "false", listFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, stderr, code := execute(t, "check", "--format", "yaml", ".")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, `Error: invalid format "yaml"`)
}

func TestMissingArgument(t *testing.T) {
	_, stderr, code := execute(t, "build")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "accepts 1 arg(s)")
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
}
