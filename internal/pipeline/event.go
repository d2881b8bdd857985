package pipeline

import (
	"fmt"
	"path"
	"strings"
)

// EventKind is the source-control event that can start a run.
type EventKind string

const (
	EventPush        EventKind = "push"
	EventPullRequest EventKind = "pull_request"
)

// Event is a trigger: what happened, and to which branch.
type Event struct {
	Kind   EventKind
	Branch string
}

func (e Event) String() string {
	return fmt.Sprintf("%s to %s", e.Kind, e.Branch)
}

// ParseEventKind accepts "push", "pull_request" and "pull-request".
func ParseEventKind(s string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "push":
		return EventPush, nil
	case "pull_request", "pull-request":
		return EventPullRequest, nil
	}
	return "", fmt.Errorf("unknown event %q (want push or pull_request)", s)
}

// Triggers reports whether ev starts a run of d.
func (d *Definition) Triggers(ev Event) bool {
	switch ev.Kind {
	case EventPush:
		return d.On.Push.Matches(ev.Branch)
	case EventPullRequest:
		return d.On.PullRequest.Matches(ev.Branch)
	}
	return false
}

// Matches reports whether branch is selected by the filter. A nil filter
// matches nothing; an empty one matches everything. Patterns use
// path.Match syntax, so "release/*" selects "release/1.0".
func (f *BranchFilter) Matches(branch string) bool {
	if f == nil {
		return false
	}
	if len(f.Branches) == 0 {
		return true
	}
	branch = strings.TrimPrefix(branch, "refs/heads/")
	for _, pattern := range f.Branches {
		if pattern == branch {
			return true
		}
		if ok, err := path.Match(pattern, branch); err == nil && ok {
			return true
		}
	}
	return false
}
