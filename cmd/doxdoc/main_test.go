package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: Foo\nbrief: Does a thing.\n"), 0644))

	out, err := renderFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "# Foo\n\nDoes a thing.\n\n", out)
}

func TestRenderFile_WrapsPreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("brief: one two three four\n"), 0644))

	out, err := renderFile(path, 9)
	require.NoError(t, err)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 9, "line %q", line)
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, strings.Fields(out))
}

func TestRenderFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("brief: [x]\n"), 0644))

	_, err := renderFile(path, 0)
	assert.Error(t, err)
}
