package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "pyken.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "build/validators", cfg.Out)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, []string{"scratch/*", "*_draft.py"}, cfg.Exclude)
	assert.Equal(t, "testdata", cfg.Dir())

	assert.Equal(t, []NamedType{
		{Source: "Lovelace", TypeEntry: TypeEntry{Name: "Int"}},
		{Source: "MaybeOwner", TypeEntry: TypeEntry{Name: "ByteArray", Option: true}},
		{Source: "Policy", TypeEntry: TypeEntry{Name: "PolicyId", Module: "cardano/assets"}},
	}, cfg.TypeList())
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{file: "bad_jobs.yaml", want: "jobs"},
		{file: "unknown_key.yaml", want: "output"},
		{file: "bad_type.yaml", want: "name"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join("testdata", tt.file)
			_, err := Load(path)
			require.Error(t, err)

			var cfgErr *Error
			require.True(t, errors.As(err, &cfgErr), "want *config.Error, got %T", err)
			assert.Equal(t, path, cfgErr.Path)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParse(t *testing.T) {
	t.Run("empty document", func(t *testing.T) {
		cfg, err := Parse("empty.yaml", nil)
		require.NoError(t, err)
		assert.Equal(t, &Config{}, cfg)
	})

	t.Run("comments only", func(t *testing.T) {
		cfg, err := Parse("c.yaml", []byte("# nothing yet\n"))
		require.NoError(t, err)
		assert.Empty(t, cfg.TypeList())
	})

	t.Run("bad glob", func(t *testing.T) {
		_, err := Parse("g.yaml", []byte("exclude:\n  - \"[\"\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad pattern")
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := Parse("s.yaml", []byte("strict: yes please\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "strict")
	})

	t.Run("bad module path", func(t *testing.T) {
		_, err := Parse("m.yaml", []byte("types:\n  Policy:\n    name: PolicyId\n    module: Cardano.Assets\n"))
		require.Error(t, err)
	})
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
	assert.Equal(t, ".", cfg.Dir())

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("jobs: 2\n"), 0o644))
	cfg, err = Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Jobs)
	assert.Equal(t, path, cfg.Path)

	// A file argument has no project file next to it.
	cfg, err = Discover(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.Jobs)
}
