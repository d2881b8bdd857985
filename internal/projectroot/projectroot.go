// SPDX-License-Identifier: AGPL-3.0-or-later

// Package projectroot locates the directory a pipeline runs from.
package projectroot

import (
	"fmt"
	"os"
	"path/filepath"
)

// Markers identify a project root, checked in order at each level.
var Markers = []string{".pipewright.yml", ".git"}

// Find walks up from start until a directory holding one of Markers is
// found. If none is, the absolute form of start is returned.
func Find(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	for dir := abs; ; {
		for _, m := range Markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}
