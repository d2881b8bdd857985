package scanner

import (
	"path"
	"sort"
	"strings"
)

// FilterOptions selects which scanned files a workspace receives.
type FilterOptions struct {
	// ExcludeDirs are directory names dropped at any depth. "build"
	// excludes "build/x" and "tests/build/y" but not "build_tools/z".
	ExcludeDirs []string

	// ExcludeFiles are path.Match patterns tested against the file's base
	// name, e.g. "*.o".
	ExcludeFiles []string
}

// DefaultExcludeDirs returns the directories never copied into a
// workspace: VCS metadata, run state, editor folders and build trees, so
// every run configures from scratch.
func DefaultExcludeDirs() []string {
	return []string{
		".git",
		".pipewright",
		"build",
		"out",
		"node_modules",
		".idea",
		".vscode",
		".cache",
	}
}

// DefaultExcludeFiles returns leftovers of in-source builds. A stray
// CMakeCache.txt at the root would make cmake reuse a stale configuration.
func DefaultExcludeFiles() []string {
	return []string{
		"CMakeCache.txt",
		"*.o",
		"*.obj",
		".pipewright-tmp-*",
	}
}

// FilterFiles returns the paths not excluded by opts, sorted.
func FilterFiles(paths []string, opts FilterOptions) []string {
	var kept []string
	for _, p := range paths {
		if inExcludedDir(p, opts.ExcludeDirs) || matchesFile(p, opts.ExcludeFiles) {
			continue
		}
		kept = append(kept, p)
	}
	sort.Strings(kept)
	return kept
}

func inExcludedDir(p string, dirs []string) bool {
	segments := strings.Split(p, "/")
	// The last segment is the file itself.
	for _, seg := range segments[:len(segments)-1] {
		for _, d := range dirs {
			if seg == d {
				return true
			}
		}
	}
	return false
}

func matchesFile(p string, patterns []string) bool {
	base := path.Base(p)
	for _, pat := range patterns {
		if ok, err := path.Match(pat, base); err == nil && ok {
			return true
		}
	}
	return false
}
