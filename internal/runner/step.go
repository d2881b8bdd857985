package runner

import (
	"context"
	"io"

	"github.com/bartekus/pipewright/internal/pipeline"
)

// Deps contains dependencies injected into steps.
type Deps struct {
	// Workspace is the directory steps execute in.
	Workspace string
	StateDir  string
	// Shell runs step commands; "sh" when empty.
	Shell string
	// Env is appended to the process environment of every step.
	Env []string
	// Output receives step output verbatim.
	Output io.Writer
}

// Step defines a unit of work in a pipeline run.
type Step interface {
	// ID returns the step name as declared in the pipeline.
	ID() string

	// Stage returns the stage the step belongs to.
	Stage() pipeline.Stage

	// Run executes the step.
	Run(ctx context.Context, deps *Deps) StepResult
}
