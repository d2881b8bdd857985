package runner

import (
	"time"

	"github.com/bartekus/pipewright/internal/pipeline"
)

// StepStatus represents the outcome of a step execution.
type StepStatus string

const (
	StatusPass StepStatus = "pass"
	StatusFail StepStatus = "fail"
	StatusSkip StepStatus = "skip"
)

// Terminal statuses of a run.
const (
	RunSuccess = "success"
	RunFailure = "failure"
)

// StepResult represents the result of a single step execution.
// Matches <state-dir>/steps/<slug>.json.
type StepResult struct {
	Step       string         `json:"step"`
	Stage      pipeline.Stage `json:"stage"`
	Status     StepStatus     `json:"status"`
	ExitCode   int            `json:"exit_code"`
	DurationMS int64          `json:"duration_ms"`
	Note       string         `json:"note,omitempty"`
}

// LastRun is the summary of the most recent run.
// Matches <state-dir>/last-run.json.
type LastRun struct {
	RunID      string         `json:"run_id"`
	Pipeline   string         `json:"pipeline"`
	Event      string         `json:"event,omitempty"`
	Branch     string         `json:"branch,omitempty"`
	Status     string         `json:"status"` // "success" or "failure"
	State      pipeline.State `json:"state"`
	Steps      []string       `json:"steps"` // Ordered list of steps run
	FailedStep string         `json:"failed_step,omitempty"`
	Category   string         `json:"category,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Succeeded reports whether the run reached a success status.
func (l *LastRun) Succeeded() bool { return l.Status == RunSuccess }
