package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIContract(t *testing.T) {
	cmd := NewRootCmd()
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	out := b.String()

	requiredCommands := []string{
		"run",
		"install",
		"configure",
		"build",
		"test",
		"resume",
		"validate",
		"list",
		"init",
		"report",
		"reset",
		"history",
		"version",
		"help",
	}
	for _, c := range requiredCommands {
		assert.Contains(t, out, c, "expected top-level command %q in root help", c)
	}
}

func TestCLICommandRunHelp(t *testing.T) {
	cmd := NewRootCmd()
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetArgs([]string{"run", "--help"})

	require.NoError(t, cmd.Execute())
	out := b.String()

	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "--event")
	assert.Contains(t, out, "--branch")
	assert.Contains(t, out, "--in-place")
}

func TestCLIStageCommandsRequireWorkspace(t *testing.T) {
	for _, stage := range []string{"configure", "build", "test"} {
		cmd := NewRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{stage})
		assert.Error(t, cmd.Execute(), stage)
	}
}

func TestVersion(t *testing.T) {
	t.Setenv("PIPEWRIGHT_VERSION", "1.2.3")
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "Pipewright version 1.2.3\n", out)
}
