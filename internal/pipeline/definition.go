package pipeline

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the file name a workspace keeps its pipeline definition in.
const DefaultFile = ".pipewright.yml"

// Definition is the declarative pipeline: the events that trigger it and
// the ordered steps a run executes.
type Definition struct {
	Name  string    `yaml:"name" validate:"required"`
	On    Triggers  `yaml:"on"`
	Steps []StepDef `yaml:"steps" validate:"required,min=1,unique=Name,dive"`
}

// Triggers maps event kinds to the branches they fire on.
type Triggers struct {
	Push        *BranchFilter `yaml:"push,omitempty"`
	PullRequest *BranchFilter `yaml:"pull_request,omitempty"`
}

// BranchFilter restricts an event to a set of branches. An empty list
// matches every branch.
type BranchFilter struct {
	Branches []string `yaml:"branches,omitempty"`
}

// StepDef is one named shell command.
type StepDef struct {
	Name             string            `yaml:"name" validate:"required"`
	Stage            Stage             `yaml:"stage,omitempty" validate:"omitempty,oneof=install configure build test"`
	Run              string            `yaml:"run" validate:"required"`
	WorkingDirectory string            `yaml:"working-directory,omitempty"`
	Env              map[string]string `yaml:"env,omitempty"`
}

// Load reads and validates the definition at path.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline definition: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Parse decodes a YAML definition, fills in inherited stages and validates it.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	def.normalize()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Marshal encodes the definition as YAML.
func (d *Definition) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Plan returns the stage of every step, in execution order.
func (d *Definition) Plan() []Stage {
	plan := make([]Stage, 0, len(d.Steps))
	for _, s := range d.Steps {
		plan = append(plan, s.Stage)
	}
	return plan
}

// normalize gives every step without a stage the stage of the step
// before it. The first step defaults to install.
func (d *Definition) normalize() {
	prev := StageInstall
	for i := range d.Steps {
		if d.Steps[i].Stage == "" {
			d.Steps[i].Stage = prev
		}
		prev = d.Steps[i].Stage
	}
}

// DefaultDefinition is the pipeline for a CMake project tested with
// GoogleTest: install the toolchain, configure, build, run ctest.
func DefaultDefinition() *Definition {
	return &Definition{
		Name: "CI",
		On: Triggers{
			Push:        &BranchFilter{Branches: []string{"main"}},
			PullRequest: &BranchFilter{Branches: []string{"main"}},
		},
		Steps: []StepDef{
			{
				Name:  "Install dependencies",
				Stage: StageInstall,
				Run:   "sudo apt-get update && sudo apt-get install -y cmake g++ libgtest-dev",
			},
			{
				Name:  "Configure",
				Stage: StageConfigure,
				Run:   "cmake -S . -B build",
			},
			{
				Name:  "Build",
				Stage: StageBuild,
				Run:   "cmake --build build",
			},
			{
				Name:  "Test",
				Stage: StageTest,
				Run:   "ctest --test-dir build --output-on-failure",
			},
		},
	}
}

// Slug turns a step name into a file-name-safe identifier. Step results
// are stored under it, so no two steps of a definition may share one.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "step"
	}
	return slug
}
