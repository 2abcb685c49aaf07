package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteThenReadTree(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.py":          "x = 1\n",
		"pkg/inner.py":  "",
		"pkg/deep/b.py": "y = 2\n",
	}
	WriteTree(t, root, files)

	got := ReadTree(t, root)
	assert.Equal(t, files, got)
	assert.Equal(t, []string{"a.py", "pkg/deep/b.py", "pkg/inner.py"}, Keys(got))
}
