package pipeline

// State is a position in the lifecycle of a pipeline run.
type State string

const (
	StateTriggered             State = "triggered"
	StateDependenciesInstalled State = "dependencies-installed"
	StateConfigured            State = "configured"
	StateBuilt                 State = "built"
	StateTested                State = "tested"
	StateSucceeded             State = "succeeded"
	StateFailed                State = "failed"
)

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Machine tracks a run through its states. It is built from the stage of
// every step that will execute, in order, and is advanced once per step.
//
// A step exiting 0 moves the run past every stage that has no steps left;
// a non-zero exit moves it straight to StateFailed. Once terminal, the
// machine rejects further advances.
type Machine struct {
	plan    []Stage
	next    int
	reached int // number of stages whose Completed state has been entered
	state   State
	history []State
	failed  Stage
}

// NewMachine returns a machine in StateTriggered for the given plan. An
// empty plan succeeds immediately.
func NewMachine(plan []Stage) *Machine {
	m := &Machine{
		plan:    append([]Stage(nil), plan...),
		state:   StateTriggered,
		history: []State{StateTriggered},
	}
	if len(m.plan) == 0 {
		m.settle()
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// History returns every state entered so far, in order.
func (m *Machine) History() []State {
	return append([]State(nil), m.history...)
}

// FailedStage returns the stage of the step that failed the run, if any.
func (m *Machine) FailedStage() Stage { return m.failed }

// Advance records the exit code of the next planned step and returns the
// resulting state.
func (m *Machine) Advance(exitCode int) (State, error) {
	if m.state.Terminal() || m.next >= len(m.plan) {
		return m.state, ErrMachineTerminal
	}

	stage := m.plan[m.next]
	m.next++

	if exitCode != 0 {
		m.failed = stage
		m.enter(StateFailed)
		return m.state, nil
	}

	if m.next == len(m.plan) {
		m.settle()
		return m.state, nil
	}

	// Every stage before the next step's stage is now complete.
	upcoming := m.plan[m.next].Index()
	for m.reached < upcoming {
		m.enter(Stages[m.reached].Completed())
		m.reached++
	}
	return m.state, nil
}

func (m *Machine) settle() {
	for m.reached < len(Stages) {
		m.enter(Stages[m.reached].Completed())
		m.reached++
	}
	m.enter(StateSucceeded)
}

func (m *Machine) enter(s State) {
	m.state = s
	m.history = append(m.history, s)
}
