package pipeline

import (
	"errors"
	"fmt"
)

// Failure categories. A failed run wraps exactly one of these, chosen by
// the stage of the step that failed.
var (
	ErrDependencyInstall = errors.New("dependency installation failed")
	ErrConfigure         = errors.New("build configuration failed")
	ErrCompile           = errors.New("compilation failed")
	ErrTestAssertion     = errors.New("test assertion failed")
)

var (
	ErrInvalidDefinition = errors.New("invalid pipeline definition")
	ErrMachineTerminal   = errors.New("pipeline run already reached a terminal state")
)

// CategoryOf returns the failure category for a step in stage s.
func CategoryOf(s Stage) error {
	switch s {
	case StageInstall:
		return ErrDependencyInstall
	case StageConfigure:
		return ErrConfigure
	case StageBuild:
		return ErrCompile
	case StageTest:
		return ErrTestAssertion
	}
	return nil
}

// CategoryName is the short label persisted with a failed run.
func CategoryName(s Stage) string {
	switch s {
	case StageInstall:
		return "dependency-install"
	case StageConfigure:
		return "configure"
	case StageBuild:
		return "compile"
	case StageTest:
		return "test"
	}
	return ""
}

// StepError describes the step that halted a run.
type StepError struct {
	Step   string
	Stage  Stage
	Code   int
	Output string
}

func (e *StepError) Error() string {
	cause := CategoryOf(e.Stage)
	if cause == nil {
		return fmt.Sprintf("step %q exited with code %d", e.Step, e.Code)
	}
	return fmt.Sprintf("%v: step %q exited with code %d", cause, e.Step, e.Code)
}

// Unwrap exposes the failure category to errors.Is.
func (e *StepError) Unwrap() error { return CategoryOf(e.Stage) }

// ExitCode is the process exit code a CLI should report for this failure.
func (e *StepError) ExitCode() int {
	if e.Code <= 0 {
		return 1
	}
	return e.Code
}
