package projectroot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind_DefinitionMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".pipewright.yml"), []byte("name: CI\n"), 0o600))
	nested := filepath.Join(root, "src", "lib")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	got, err := Find(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFind_GitMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o750))
	file := filepath.Join(root, "main.cpp")
	require.NoError(t, os.WriteFile(file, []byte("int main() {}\n"), 0o600))

	got, err := Find(file)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFind_NoMarkerFallsBackToStart(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	got, err := Find(".")
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	gotReal, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, gotReal)
}

func TestFind_Missing(t *testing.T) {
	_, err := Find(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
