package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bartekus/pipewright/internal/observability"
	"github.com/bartekus/pipewright/internal/pipeline"
)

var (
	// ErrNoSteps is returned when a stage or resume selects nothing to run.
	ErrNoSteps = errors.New("no steps to run")
	// ErrUnknownStep is returned when a step is selected by a name the
	// pipeline does not declare.
	ErrUnknownStep = errors.New("unknown step")
)

// Recorder persists finished runs beyond the last-run state, e.g. a
// history database.
type Recorder interface {
	Record(ctx context.Context, run LastRun, results []StepResult) error
}

// Progress follows a run step by step. *progressbar.ProgressBar satisfies it.
type Progress interface {
	Describe(description string)
	Add(n int) error
	Finish() error
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger. The default discards logs.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithRecorder records every finished run.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithProgress installs a progress display built for the number of steps
// about to run.
func WithProgress(newProgress func(total int) Progress) Option {
	return func(r *Runner) { r.newProgress = newProgress }
}

// WithPipelineName labels runs in state, logs and history.
func WithPipelineName(name string) Option {
	return func(r *Runner) { r.name = name }
}

// Runner manages the execution of steps.
type Runner struct {
	steps       []Step
	store       *StateStore
	deps        *Deps
	log         *zap.Logger
	recorder    Recorder
	newProgress func(total int) Progress
	name        string
}

// NewRunner creates a new runner with the given steps and dependencies.
func NewRunner(steps []Step, store *StateStore, deps *Deps, opts ...Option) *Runner {
	r := &Runner{
		steps: steps,
		store: store,
		deps:  deps,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.deps.Output == nil {
		r.deps.Output = io.Discard
	}
	return r
}

// Run executes every step in order for the given trigger. It stops at the
// first failing step and returns its *pipeline.StepError; no later step
// executes.
func (r *Runner) Run(ctx context.Context, ev pipeline.Event) error {
	return r.executeSequence(ctx, r.steps, ev)
}

// RunStage executes only the steps of one stage, in order.
func (r *Runner) RunStage(ctx context.Context, stage pipeline.Stage) error {
	var toRun []Step
	for _, s := range r.steps {
		if s.Stage() == stage {
			toRun = append(toRun, s)
		}
	}
	if len(toRun) == 0 {
		return fmt.Errorf("%w: stage %s has no steps", ErrNoSteps, stage)
	}
	return r.executeSequence(ctx, toRun, pipeline.Event{})
}

// Resume continues from the step that failed the last run. Steps before
// it are not re-run. When the last run succeeded, or no run was recorded,
// Resume does nothing.
func (r *Runner) Resume(ctx context.Context) error {
	last, err := r.store.ReadLastRun()
	if err != nil {
		return fmt.Errorf("loading last run: %w", err)
	}
	if last == nil || last.FailedStep == "" {
		return nil
	}

	idx := r.indexOf(last.FailedStep)
	if idx < 0 {
		return fmt.Errorf("%w: failed step %q is no longer in the pipeline", ErrNoSteps, last.FailedStep)
	}

	ev := pipeline.Event{Kind: pipeline.EventKind(last.Event), Branch: last.Branch}
	return r.executeSequence(ctx, r.steps[idx:], ev)
}

// RunList executes the named steps for ev, in pipeline order. Every name
// is checked before anything runs.
func (r *Runner) RunList(ctx context.Context, ev pipeline.Event, stepIDs []string) error {
	selected := make(map[string]bool, len(stepIDs))
	for _, id := range stepIDs {
		if r.indexOf(id) < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownStep, id)
		}
		selected[id] = true
	}

	var toRun []Step
	for _, s := range r.steps {
		if selected[s.ID()] {
			toRun = append(toRun, s)
		}
	}
	return r.executeSequence(ctx, toRun, ev)
}

func (r *Runner) indexOf(id string) int {
	for i, s := range r.steps {
		if s.ID() == id {
			return i
		}
	}
	return -1
}

// executeSequence runs steps one at a time, driving the run state machine
// and persisting every result. It halts at the first failure.
func (r *Runner) executeSequence(ctx context.Context, steps []Step, ev pipeline.Event) error {
	plan := make([]pipeline.Stage, 0, len(steps))
	for _, s := range steps {
		plan = append(plan, s.Stage())
	}

	machine := pipeline.NewMachine(plan)
	out := r.deps.Output

	lastRun := LastRun{
		RunID:     uuid.NewString(),
		Pipeline:  r.name,
		Event:     string(ev.Kind),
		Branch:    ev.Branch,
		Steps:     []string{},
		StartedAt: time.Now().UTC(),
	}
	log := r.log.With(zap.String("run_id", lastRun.RunID))
	log.Info("pipeline triggered",
		zap.String("pipeline", r.name),
		zap.String("event", lastRun.Event),
		zap.String("branch", lastRun.Branch),
		zap.Int("steps", len(steps)),
	)

	var progress Progress
	if r.newProgress != nil {
		progress = r.newProgress(len(steps))
	}

	var results []StepResult
	var stepErr *pipeline.StepError
	// A cancelled run records the step it stopped at so resume can
	// continue from there.
	var cancelled error
	var interrupted string

	for _, step := range steps {
		id := step.ID()
		if err := ctx.Err(); err != nil {
			cancelled = fmt.Errorf("run cancelled before step %s: %w", id, err)
			interrupted = id
			break
		}
		lastRun.Steps = append(lastRun.Steps, id)

		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Fprintf(out, "STEP: %s (%s)\n", id, step.Stage())
		fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Fprintln(out, "")

		if progress != nil {
			progress.Describe(id)
		}

		start := time.Now()
		res := step.Run(ctx, r.deps)
		elapsed := time.Since(start)

		if res.Step == "" {
			res.Step = id
		}
		if res.Stage == "" {
			res.Stage = step.Stage()
		}
		if res.DurationMS == 0 {
			res.DurationMS = elapsed.Milliseconds()
		}
		if res.Status == StatusFail && res.ExitCode == 0 {
			res.ExitCode = 1
		}
		if res.Status != StatusFail {
			res.ExitCode = 0
		}
		results = append(results, res)

		if err := r.store.WriteStepResult(res); err != nil {
			return fmt.Errorf("writing result for %s: %w", id, err)
		}
		observability.RecordStep(string(res.Stage), string(res.Status), elapsed)

		state, err := machine.Advance(res.ExitCode)
		if err != nil {
			return fmt.Errorf("advancing run state after %s: %w", id, err)
		}

		log.Info("step finished",
			zap.String("step", id),
			zap.String("stage", string(res.Stage)),
			zap.String("status", string(res.Status)),
			zap.Int("exit_code", res.ExitCode),
			zap.Duration("duration", elapsed),
			zap.String("state", string(state)),
		)

		if progress != nil {
			_ = progress.Add(1)
		}

		switch res.Status {
		case StatusSkip:
			color.New(color.FgYellow).Fprintf(out, "SKIP: %s\n", id)
			if res.Note != "" {
				fmt.Fprintln(out, res.Note)
			}
		case StatusFail:
			if err := ctx.Err(); err != nil {
				color.New(color.FgYellow).Fprintf(out, "CANCELLED: %s\n", id)
				cancelled = fmt.Errorf("run cancelled during step %s: %w", id, err)
				interrupted = id
				break
			}
			color.New(color.FgRed, color.Bold).Fprintf(out, "FAIL: %s (exit %d)\n", id, res.ExitCode)
			stepErr = &pipeline.StepError{
				Step:   id,
				Stage:  res.Stage,
				Code:   res.ExitCode,
				Output: res.Note,
			}
		default:
			color.New(color.FgGreen).Fprintf(out, "PASS: %s\n", id)
		}

		if stepErr != nil || cancelled != nil {
			break
		}
	}

	if progress != nil {
		_ = progress.Finish()
	}

	lastRun.FinishedAt = time.Now().UTC()
	lastRun.State = machine.State()
	lastRun.Status = RunSuccess
	switch {
	case stepErr != nil:
		lastRun.Status = RunFailure
		lastRun.FailedStep = stepErr.Step
		lastRun.Category = pipeline.CategoryName(stepErr.Stage)
	case cancelled != nil:
		lastRun.Status = RunFailure
		lastRun.FailedStep = interrupted
	}

	if err := r.store.WriteLastRun(lastRun); err != nil {
		return fmt.Errorf("writing last run: %w", err)
	}
	if r.recorder != nil {
		if err := r.recorder.Record(context.WithoutCancel(ctx), lastRun, results); err != nil {
			return fmt.Errorf("recording run history: %w", err)
		}
	}

	duration := lastRun.FinishedAt.Sub(lastRun.StartedAt)
	observability.RecordRun(lastRun.Status, duration)

	if cancelled != nil {
		log.Warn("pipeline cancelled", zap.Error(cancelled), zap.Duration("duration", duration))
		return cancelled
	}
	if stepErr != nil {
		log.Error("pipeline failed",
			zap.String("step", stepErr.Step),
			zap.String("category", lastRun.Category),
			zap.Int("exit_code", stepErr.Code),
			zap.Duration("duration", duration),
		)
		return stepErr
	}

	log.Info("pipeline succeeded", zap.Duration("duration", duration))
	return nil
}
