package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullPlan() []Stage {
	return []Stage{StageInstall, StageConfigure, StageBuild, StageTest}
}

func TestMachine_AllStepsPass(t *testing.T) {
	m := NewMachine(fullPlan())
	assert.Equal(t, StateTriggered, m.State())

	want := []State{StateDependenciesInstalled, StateConfigured, StateBuilt, StateSucceeded}
	for i, w := range want {
		got, err := m.Advance(0)
		require.NoError(t, err)
		assert.Equal(t, w, got, "after step %d", i)
	}

	assert.Equal(t, []State{
		StateTriggered,
		StateDependenciesInstalled,
		StateConfigured,
		StateBuilt,
		StateTested,
		StateSucceeded,
	}, m.History())
	assert.Empty(t, m.FailedStage())
}

func TestMachine_FailureIsTerminal(t *testing.T) {
	m := NewMachine(fullPlan())

	_, err := m.Advance(0)
	require.NoError(t, err)

	got, err := m.Advance(2)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, got)
	assert.Equal(t, StageConfigure, m.FailedStage())

	got, err = m.Advance(0)
	assert.ErrorIs(t, err, ErrMachineTerminal)
	assert.Equal(t, StateFailed, got)
}

func TestMachine_SeveralStepsPerStage(t *testing.T) {
	m := NewMachine([]Stage{StageInstall, StageInstall, StageBuild})

	got, err := m.Advance(0)
	require.NoError(t, err)
	assert.Equal(t, StateTriggered, got, "install is not complete until its last step")

	got, err = m.Advance(0)
	require.NoError(t, err)
	assert.Equal(t, StateConfigured, got, "empty configure stage is passed through")

	got, err = m.Advance(0)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, got)
}

func TestMachine_EmptyPlanSucceeds(t *testing.T) {
	m := NewMachine(nil)
	assert.Equal(t, StateSucceeded, m.State())

	_, err := m.Advance(0)
	assert.ErrorIs(t, err, ErrMachineTerminal)
}

func TestMachine_Property(t *testing.T) {
	// For every exit-code sequence the run succeeds iff all codes are zero,
	// and no advance after the first failure is accepted.
	sequences := [][]int{
		{0, 0, 0, 0},
		{1, 0, 0, 0},
		{0, 0, 0, 7},
		{0, 127, 0, 0},
		{0, 0, 2, 2},
	}
	for _, seq := range sequences {
		m := NewMachine(fullPlan())
		accepted := 0
		for _, code := range seq {
			if _, err := m.Advance(code); err != nil {
				break
			}
			accepted++
		}

		firstFail := -1
		for i, code := range seq {
			if code != 0 {
				firstFail = i
				break
			}
		}

		if firstFail < 0 {
			assert.Equal(t, StateSucceeded, m.State(), "%v", seq)
			assert.Equal(t, len(seq), accepted)
		} else {
			assert.Equal(t, StateFailed, m.State(), "%v", seq)
			assert.Equal(t, firstFail+1, accepted, "%v", seq)
		}
	}
}

func TestStepError(t *testing.T) {
	err := &StepError{Step: "Build", Stage: StageBuild, Code: 2, Output: "undefined reference"}

	assert.ErrorIs(t, err, ErrCompile)
	assert.NotErrorIs(t, err, ErrTestAssertion)
	assert.Equal(t, 2, err.ExitCode())
	assert.Contains(t, err.Error(), `step "Build" exited with code 2`)

	zero := &StepError{Step: "Test", Stage: StageTest}
	assert.Equal(t, 1, zero.ExitCode())
	assert.ErrorIs(t, zero, ErrTestAssertion)
}

func TestCategoryName(t *testing.T) {
	assert.Equal(t, "dependency-install", CategoryName(StageInstall))
	assert.Equal(t, "configure", CategoryName(StageConfigure))
	assert.Equal(t, "compile", CategoryName(StageBuild))
	assert.Equal(t, "test", CategoryName(StageTest))
	assert.Empty(t, CategoryName("deploy"))
}
