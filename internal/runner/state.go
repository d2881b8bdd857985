package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bartekus/pipewright/internal/pipeline"
	"github.com/bartekus/pipewright/internal/projection"
)

// StateStore handles reading and writing runner state.
type StateStore struct {
	baseDir string
}

// NewStateStore creates a store at the given base directory (e.g. .pipewright/run).
func NewStateStore(baseDir string) *StateStore {
	return &StateStore{baseDir: baseDir}
}

// Dir returns the directory the store writes to.
func (s *StateStore) Dir() string { return s.baseDir }

func (s *StateStore) lastRunPath() string {
	return filepath.Join(s.baseDir, "last-run.json")
}

func (s *StateStore) stepPath(step string) string {
	return filepath.Join(s.baseDir, "steps", pipeline.Slug(step)+".json")
}

// ReadLastRun loads the last execution summary. It returns nil, nil when
// no run has been recorded.
func (s *StateStore) ReadLastRun() (*LastRun, error) {
	var last LastRun
	found, err := readJSON(s.lastRunPath(), &last)
	if err != nil {
		return nil, fmt.Errorf("reading last run: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &last, nil
}

// ReadStep loads the recorded result of one step, or nil if it never ran.
func (s *StateStore) ReadStep(step string) (*StepResult, error) {
	var res StepResult
	found, err := readJSON(s.stepPath(step), &res)
	if err != nil {
		return nil, fmt.Errorf("reading result of step %q: %w", step, err)
	}
	if !found {
		return nil, nil
	}
	return &res, nil
}

// ReadSteps loads the results of the given steps in order, skipping steps
// with no recorded result.
func (s *StateStore) ReadSteps(steps []string) ([]StepResult, error) {
	results := make([]StepResult, 0, len(steps))
	for _, id := range steps {
		res, err := s.ReadStep(id)
		if err != nil {
			return nil, err
		}
		if res != nil {
			results = append(results, *res)
		}
	}
	return results, nil
}

// WriteLastRun saves the execution summary.
func (s *StateStore) WriteLastRun(last LastRun) error {
	return writeJSON(s.lastRunPath(), last)
}

// WriteStepResult saves a step's result.
func (s *StateStore) WriteStepResult(res StepResult) error {
	return writeJSON(s.stepPath(res.Step), res)
}

// Reset clears the state directory.
func (s *StateStore) Reset() error {
	return os.RemoveAll(s.baseDir)
}

// LoadFailedStep returns the step that failed the last run, or "" if the
// last run succeeded or there is none.
func (s *StateStore) LoadFailedStep() (string, error) {
	last, err := s.ReadLastRun()
	if err != nil {
		return "", err
	}
	if last == nil {
		return "", nil
	}
	return last.FailedStep, nil
}

func readJSON(path string, v any) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil // Not found is clean state
	}
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", path, err)
	}
	return true, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return projection.AtomicWrite(path, append(data, '\n'))
}
