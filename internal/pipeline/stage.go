// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline models a build-and-test pipeline: its declarative
// definition, the events that trigger it, and the state machine a run
// walks through.
package pipeline

import "fmt"

// Stage groups steps by the phase of the build they belong to.
type Stage string

const (
	StageInstall   Stage = "install"
	StageConfigure Stage = "configure"
	StageBuild     Stage = "build"
	StageTest      Stage = "test"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageInstall, StageConfigure, StageBuild, StageTest}

// Index returns the position of s in Stages, or -1 for an unknown stage.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool { return s.Index() >= 0 }

// Completed returns the state a run reaches once every step of s has exited 0.
func (s Stage) Completed() State {
	switch s {
	case StageInstall:
		return StateDependenciesInstalled
	case StageConfigure:
		return StateConfigured
	case StageBuild:
		return StateBuilt
	case StageTest:
		return StateTested
	}
	return ""
}

// ParseStage converts a user-supplied name into a Stage.
func ParseStage(name string) (Stage, error) {
	s := Stage(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage %q (want one of install, configure, build, test)", name)
	}
	return s, nil
}
