package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
)

// Scanner provides access to the files of a source tree.
type Scanner struct {
	root string

	mu        sync.Mutex
	fileCache []string
}

// New creates a new Scanner for the given source root.
func New(root string) *Scanner {
	return &Scanner{
		root: root,
	}
}

// Files returns every regular file and symlink under the root as a
// slash-separated relative path, caching the result for the instance
// lifetime. The .git directory is never descended into.
func (s *Scanner) Files(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fileCache != nil {
		return s.fileCache, nil
	}

	files := []string{}
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", s.root, err)
	}

	s.fileCache = files
	return s.fileCache, nil
}

// FilesFiltered returns files matching the filter options.
func (s *Scanner) FilesFiltered(ctx context.Context, opts FilterOptions) ([]string, error) {
	all, err := s.Files(ctx)
	if err != nil {
		return nil, err
	}
	return FilterFiles(all, opts), nil
}

// SourceFiles returns the files a pipeline workspace is built from,
// applying the default excludes plus extraDirs.
func (s *Scanner) SourceFiles(ctx context.Context, extraDirs ...string) ([]string, error) {
	return s.FilesFiltered(ctx, FilterOptions{
		ExcludeDirs:  append(DefaultExcludeDirs(), extraDirs...),
		ExcludeFiles: DefaultExcludeFiles(),
	})
}
