package steps

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bartekus/pipewright/internal/pipeline"
	"github.com/bartekus/pipewright/internal/runner"
)

// tailLines is how much output a failed step keeps in its result note.
const tailLines = 20

// exitNotRunnable is reported when the shell itself cannot be started.
const exitNotRunnable = 127

// ShellStep runs one declared command through the shell.
type ShellStep struct {
	name  string
	stage pipeline.Stage
	run   string
	dir   string
	env   map[string]string
}

// NewShellStep builds a step from its definition.
func NewShellStep(def pipeline.StepDef) *ShellStep {
	return &ShellStep{
		name:  def.Name,
		stage: def.Stage,
		run:   def.Run,
		dir:   def.WorkingDirectory,
		env:   def.Env,
	}
}

func (s *ShellStep) ID() string { return s.name }

func (s *ShellStep) Stage() pipeline.Stage { return s.stage }

// Command returns the shell command string.
func (s *ShellStep) Command() string { return s.run }

func (s *ShellStep) Run(ctx context.Context, deps *runner.Deps) runner.StepResult {
	shell := deps.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", s.run)
	cmd.Dir = deps.Workspace
	if s.dir != "" {
		cmd.Dir = filepath.Join(deps.Workspace, s.dir)
	}
	cmd.Env = append(os.Environ(), deps.Env...)
	if deps.StateDir != "" {
		cmd.Env = append(cmd.Env, "PIPEWRIGHT_STATE_DIR="+deps.StateDir)
	}
	cmd.Env = append(cmd.Env, s.envList()...)

	// Output reaches the operator verbatim; the buffer keeps it for the note.
	var captured bytes.Buffer
	live := deps.Output
	if live == nil {
		live = io.Discard
	}
	w := io.MultiWriter(live, &captured)
	cmd.Stdout = w
	cmd.Stderr = w

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		exitCode := 1
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			if code := exitErr.ExitCode(); code > 0 {
				exitCode = code
			}
		default:
			// The shell never started; surface why.
			exitCode = exitNotRunnable
			captured.WriteString(err.Error())
		}

		return runner.StepResult{
			Step:       s.name,
			Stage:      s.stage,
			Status:     runner.StatusFail,
			ExitCode:   exitCode,
			DurationMS: elapsed.Milliseconds(),
			Note:       Tail(captured.String(), tailLines),
		}
	}

	return runner.StepResult{
		Step:       s.name,
		Stage:      s.stage,
		Status:     runner.StatusPass,
		ExitCode:   0,
		DurationMS: elapsed.Milliseconds(),
	}
}

func (s *ShellStep) envList() []string {
	keys := make([]string, 0, len(s.env))
	for k := range s.env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+s.env[k])
	}
	return env
}

// Tail keeps the last n lines of output, marking the cut.
func Tail(output string, n int) string {
	output = strings.TrimRight(output, "\n")
	lines := strings.Split(output, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
		output = "...(truncated)...\n" + strings.Join(lines, "\n")
	}
	return strings.TrimSpace(output)
}
