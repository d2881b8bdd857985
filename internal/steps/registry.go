// Package steps turns a pipeline definition into runnable steps.
package steps

import (
	"github.com/bartekus/pipewright/internal/pipeline"
	"github.com/bartekus/pipewright/internal/runner"
)

// FromDefinition builds the ordered steps of def.
func FromDefinition(def *pipeline.Definition) []runner.Step {
	out := make([]runner.Step, 0, len(def.Steps))
	for _, s := range def.Steps {
		out = append(out, NewShellStep(s))
	}
	return out
}
