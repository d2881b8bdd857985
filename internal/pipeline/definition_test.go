package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cmakePipeline = `
name: CI
on:
  push:
    branches: [main]
  pull_request:
    branches: [main]
steps:
  - name: Install dependencies
    run: sudo apt-get install -y cmake libgtest-dev
  - name: Configure
    stage: configure
    run: cmake -S . -B build
  - name: Build
    stage: build
    run: cmake --build build
  - name: Build tests
    run: cmake --build build --target hello_test
  - name: Test
    stage: test
    run: ctest --test-dir build --output-on-failure
    working-directory: .
    env:
      GTEST_COLOR: "1"
`

func TestParse_CMakePipeline(t *testing.T) {
	def, err := Parse([]byte(cmakePipeline))
	require.NoError(t, err)

	assert.Equal(t, "CI", def.Name)
	require.NotNil(t, def.On.Push)
	assert.Equal(t, []string{"main"}, def.On.Push.Branches)
	require.Len(t, def.Steps, 5)

	assert.Equal(t, []Stage{StageInstall, StageConfigure, StageBuild, StageBuild, StageTest}, def.Plan())
	assert.Equal(t, map[string]string{"GTEST_COLOR": "1"}, def.Steps[4].Env)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "missing name",
			yaml:    "on: {push: {}}\nsteps: [{name: a, run: 'true'}]",
			wantMsg: "name is required",
		},
		{
			name:    "no trigger",
			yaml:    "name: CI\nsteps: [{name: a, run: 'true'}]",
			wantMsg: "on must declare push or pull_request",
		},
		{
			name:    "no steps",
			yaml:    "name: CI\non: {push: {}}",
			wantMsg: "steps is required",
		},
		{
			name:    "empty run",
			yaml:    "name: CI\non: {push: {}}\nsteps: [{name: a}]",
			wantMsg: "steps[0].run is required",
		},
		{
			name:    "duplicate names",
			yaml:    "name: CI\non: {push: {}}\nsteps: [{name: a, run: x}, {name: a, run: y}]",
			wantMsg: "steps must have unique names",
		},
		{
			name:    "unknown stage",
			yaml:    "name: CI\non: {push: {}}\nsteps: [{name: a, stage: deploy, run: x}]",
			wantMsg: `steps[0].stage must be one of install configure build test, got "deploy"`,
		},
		{
			name:    "stage goes backwards",
			yaml:    "name: CI\non: {push: {}}\nsteps: [{name: a, stage: build, run: x}, {name: b, stage: configure, run: y}]",
			wantMsg: `steps[1].stage "configure" runs after stage "build"`,
		},
		{
			name:    "names collide once slugged",
			yaml:    "name: CI\non: {push: {}}\nsteps: [{name: Run tests, run: 'true'}, {name: run-tests, run: 'exit 4'}]",
			wantMsg: `steps[1].name "run-tests" collides with step "Run tests"`,
		},
		{
			name:    "not yaml",
			yaml:    "name: [unterminated",
			wantMsg: "invalid pipeline definition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDefaultDefinition_RoundTrips(t *testing.T) {
	def := DefaultDefinition()
	require.NoError(t, def.Validate())

	data, err := def.Marshal()
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, def, back)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(cmakePipeline), 0o600))

	def, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, def.Steps, 5)

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTriggers(t *testing.T) {
	def := &Definition{
		On: Triggers{
			Push:        &BranchFilter{Branches: []string{"main", "release/*"}},
			PullRequest: &BranchFilter{},
		},
	}

	tests := []struct {
		ev   Event
		want bool
	}{
		{Event{Kind: EventPush, Branch: "main"}, true},
		{Event{Kind: EventPush, Branch: "refs/heads/main"}, true},
		{Event{Kind: EventPush, Branch: "release/1.0"}, true},
		{Event{Kind: EventPush, Branch: "feature/x"}, false},
		{Event{Kind: EventPullRequest, Branch: "feature/x"}, true},
		{Event{Kind: "tag", Branch: "main"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, def.Triggers(tt.ev), tt.ev.String())
	}

	pushOnly := &Definition{On: Triggers{Push: &BranchFilter{}}}
	assert.False(t, pushOnly.Triggers(Event{Kind: EventPullRequest, Branch: "main"}))
}

func TestParseEventKind(t *testing.T) {
	k, err := ParseEventKind("push")
	require.NoError(t, err)
	assert.Equal(t, EventPush, k)

	k, err = ParseEventKind("pull-request")
	require.NoError(t, err)
	assert.Equal(t, EventPullRequest, k)

	_, err = ParseEventKind("tag")
	assert.Error(t, err)
}

func TestParseStage(t *testing.T) {
	s, err := ParseStage("build")
	require.NoError(t, err)
	assert.Equal(t, StageBuild, s)
	assert.Equal(t, StateBuilt, s.Completed())

	_, err = ParseStage("deploy")
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Install dependencies": "install-dependencies",
		"cmake --build build":  "cmake-build-build",
		"  Test  ":             "test",
		"???":                  "step",
		"Build/Release x64":    "build-release-x64",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}
