package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bartekus/pipewright/internal/pipeline"
)

func TestExitCodeOf(t *testing.T) {
	base := errors.New("disk full")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", base, ExitFailure},
		{"explicit", New(3, "boom"), 3},
		{"zero normalized", New(0, "boom"), ExitFailure},
		{"usage", Usage(base), ExitUsage},
		{"wrapped usage", fmt.Errorf("loading: %w", Usage(base)), ExitUsage},
		{"step error", &pipeline.StepError{Step: "Build", Stage: pipeline.StageBuild, Code: 2}, 2},
		{"step error without code", &pipeline.StepError{Step: "Test", Stage: pipeline.StageTest}, 1},
		{"wrapped step error", fmt.Errorf("run: %w", &pipeline.StepError{Code: 127}), 127},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeOf(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("no such file")
	err := Wrap(ExitUsage, "reading definition", base)

	assert.EqualError(t, err, "reading definition: no such file")
	assert.ErrorIs(t, err, base)
	assert.Equal(t, ExitUsage, ExitCodeOf(err))

	assert.EqualError(t, Wrap(4, "plain", nil), "plain")
	assert.NoError(t, Usage(nil))
	assert.EqualError(t, Usage(base), "no such file")
}
