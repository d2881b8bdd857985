package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/pipewright/internal/pipeline"
	"github.com/bartekus/pipewright/internal/runner"
)

func run(t *testing.T, def pipeline.StepDef, deps *runner.Deps) runner.StepResult {
	t.Helper()
	if deps.Workspace == "" {
		deps.Workspace = t.TempDir()
	}
	return NewShellStep(def).Run(context.Background(), deps)
}

func TestShellStep_Pass(t *testing.T) {
	var out bytes.Buffer
	res := run(t, pipeline.StepDef{Name: "Greet", Stage: pipeline.StageBuild, Run: "echo Hello, World!"}, &runner.Deps{Output: &out})

	assert.Equal(t, runner.StatusPass, res.Status)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "Greet", res.Step)
	assert.Equal(t, pipeline.StageBuild, res.Stage)
	assert.Equal(t, "Hello, World!\n", out.String())
}

func TestShellStep_FailSurfacesOutput(t *testing.T) {
	var out bytes.Buffer
	res := run(t, pipeline.StepDef{
		Name:  "Compile",
		Stage: pipeline.StageBuild,
		Run:   "echo 'main.cpp:3: error: expected ;' >&2; exit 3",
	}, &runner.Deps{Output: &out})

	assert.Equal(t, runner.StatusFail, res.Status)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "main.cpp:3: error: expected ;", res.Note)
	assert.Equal(t, "main.cpp:3: error: expected ;\n", out.String())
}

func TestShellStep_WorkingDirectoryAndEnv(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(ws, "build"), 0o755))

	var out bytes.Buffer
	res := run(t, pipeline.StepDef{
		Name:             "Where",
		Run:              `basename "$PWD"; echo "$GREETING $TARGET"`,
		WorkingDirectory: "build",
		Env:              map[string]string{"GREETING": "hello"},
	}, &runner.Deps{Workspace: ws, Output: &out, Env: []string{"TARGET=world"}})

	require.Equal(t, runner.StatusPass, res.Status, res.Note)
	assert.Equal(t, "build\nhello world\n", out.String())
}

func TestShellStep_StateDirInEnv(t *testing.T) {
	state := filepath.Join(t.TempDir(), "run")

	var out bytes.Buffer
	res := run(t, pipeline.StepDef{Name: "State", Run: `echo "$PIPEWRIGHT_STATE_DIR"`}, &runner.Deps{StateDir: state, Output: &out})
	require.Equal(t, runner.StatusPass, res.Status, res.Note)
	assert.Equal(t, state+"\n", out.String())
}

func TestShellStep_MissingShell(t *testing.T) {
	res := run(t, pipeline.StepDef{Name: "x", Run: "true"}, &runner.Deps{Shell: "/nonexistent/shell"})

	assert.Equal(t, runner.StatusFail, res.Status)
	assert.Equal(t, exitNotRunnable, res.ExitCode)
	assert.NotEmpty(t, res.Note)
}

func TestShellStep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewShellStep(pipeline.StepDef{Name: "slow", Run: "sleep 5"}).
		Run(ctx, &runner.Deps{Workspace: t.TempDir()})
	assert.Equal(t, runner.StatusFail, res.Status)
	assert.NotZero(t, res.ExitCode)
}

func TestTail(t *testing.T) {
	var lines []string
	for i := 1; i <= 25; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}

	got := Tail(strings.Join(lines, "\n")+"\n", 20)
	assert.True(t, strings.HasPrefix(got, "...(truncated)...\nline 6\n"), got)
	assert.True(t, strings.HasSuffix(got, "line 25"), got)

	assert.Equal(t, "a\nb", Tail("a\nb\n", 20))
	assert.Equal(t, "", Tail("", 20))
}

func TestFromDefinition(t *testing.T) {
	def := pipeline.DefaultDefinition()
	steps := FromDefinition(def)

	require.Len(t, steps, 4)
	for i, s := range steps {
		assert.Equal(t, def.Steps[i].Name, s.ID())
		assert.Equal(t, def.Steps[i].Stage, s.Stage())
	}
	assert.Equal(t, "cmake --build build", steps[2].(*ShellStep).Command())
}

func TestShellSteps_ThroughRunner(t *testing.T) {
	def, err := pipeline.Parse([]byte(`
name: smoke
on: {push: {branches: [main]}}
steps:
  - {name: configure, stage: configure, run: "mkdir -p build"}
  - {name: build, stage: build, run: "echo built > build/out.txt"}
  - {name: test, stage: test, run: "grep -q built build/out.txt"}
`))
	require.NoError(t, err)

	ws := t.TempDir()
	store := runner.NewStateStore(filepath.Join(t.TempDir(), "state"))
	r := runner.NewRunner(FromDefinition(def), store, &runner.Deps{Workspace: ws})

	require.NoError(t, r.Run(context.Background(), pipeline.Event{Kind: pipeline.EventPush, Branch: "main"}))

	last, err := store.ReadLastRun()
	require.NoError(t, err)
	assert.Equal(t, pipeline.StateSucceeded, last.State)
}
