// Package workspace prepares the directory a pipeline run builds in.
//
// By default the source tree is copied into a fresh temporary directory
// that is discarded when the run ends, so every run starts from the same
// inputs and leaves nothing behind.
package workspace

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bartekus/pipewright/internal/scanner"
)

// Options controls how a workspace is prepared.
type Options struct {
	// InPlace runs in the source tree itself; nothing is copied or removed.
	InPlace bool
	// TempRoot is the parent of ephemeral workspaces; os.TempDir() when empty.
	TempRoot string
	// Exclude lists extra directory names not to copy.
	Exclude []string
}

// Workspace is a prepared build directory.
type Workspace struct {
	Dir    string
	Source string

	ephemeral bool
}

// Ephemeral reports whether Cleanup removes the directory.
func (w *Workspace) Ephemeral() bool { return w.ephemeral }

// Prepare creates the workspace for the source tree at src.
func Prepare(ctx context.Context, src string, opts Options) (*Workspace, error) {
	abs, err := filepath.Abs(src)
	if err != nil {
		return nil, fmt.Errorf("resolving source %s: %w", src, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening source: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", abs)
	}

	if opts.InPlace {
		return &Workspace{Dir: abs, Source: abs}, nil
	}

	dir, err := os.MkdirTemp(opts.TempRoot, "pipewright-ws-*")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	ws := &Workspace{Dir: dir, Source: abs, ephemeral: true}

	files, err := scanner.New(abs).SourceFiles(ctx, opts.Exclude...)
	if err != nil {
		_ = ws.Cleanup()
		return nil, err
	}
	for _, rel := range files {
		if err := copyEntry(filepath.Join(abs, filepath.FromSlash(rel)), filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			_ = ws.Cleanup()
			return nil, fmt.Errorf("copying %s into workspace: %w", rel, err)
		}
	}
	return ws, nil
}

// Cleanup discards an ephemeral workspace. It is a no-op for in-place ones.
func (w *Workspace) Cleanup() error {
	if !w.ephemeral {
		return nil
	}
	return os.RemoveAll(w.Dir)
}

func copyEntry(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(target, dst)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
