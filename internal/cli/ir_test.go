package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRDump(t *testing.T) {
	root := newProject(t, map[string]string{"good.py": goodSource})

	stdout, stderr, code := execute(t, "ir", filepath.Join(root, "good.py"))
	require.Equal(t, ExitSuccess, code, stderr)

	var dump map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &dump))
	assert.Equal(t, "good.py", dump["source"])
	assert.Contains(t, dump, "ir_version")
	helpers, ok := dump["helpers"].([]interface{})
	require.True(t, ok)
	assert.Len(t, helpers, 1)
}

func TestIRDumpIsStable(t *testing.T) {
	root := newProject(t, map[string]string{"good.py": goodSource})
	file := filepath.Join(root, "good.py")

	first, _, _ := execute(t, "ir", file)
	second, _, _ := execute(t, "ir", file, "--format", "json")
	assert.Equal(t, first, second, "the dump is canonical JSON in both formats")
}

func TestIRDiagnosticsGoToStderr(t *testing.T) {
	root := newProject(t, map[string]string{"ratio.py": floatSource})
	file := filepath.Join(root, "ratio.py")

	stdout, stderr, code := execute(t, "ir", file)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "warning")
	assert.True(t, json.Valid([]byte(stdout)))

	_, stderr, code = execute(t, "ir", file, "--strict")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "fatal")
}

func TestIRParseFailure(t *testing.T) {
	root := newProject(t, map[string]string{"broken.py": brokenSource})

	stdout, stderr, code := execute(t, "ir", filepath.Join(root, "broken.py"))
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "broken.py:")
}

func TestIRRejectsDirectory(t *testing.T) {
	stdout, _, code := execute(t, "ir", t.TempDir())
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stdout, "is a directory")
}
