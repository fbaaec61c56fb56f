package framework

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// WalkOptions control a static discovery walk
type WalkOptions struct {
	// SkipDir reports whether a directory below the root should be skipped.
	SkipDir func(name string) bool
	// Match reports whether a file is a test file candidate.
	Match func(path string) bool
	// Exclude holds doublestar patterns matched against slash paths relative
	// to the walk root.
	Exclude []string
}

// WalkTestFiles calls fn for each candidate file under root in lexical order.
// A root that is a file is visited directly when it matches. Unreadable
// directories are reported through onErr and skipped.
func WalkTestFiles(ctx context.Context, root string, opts WalkOptions, fn func(path string), onErr func(path string, err error)) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		if opts.Match(root) {
			fn(root)
		}
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if walkErr != nil {
			onErr(path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && (opts.SkipDir(d.Name()) || excluded(root, path, opts.Exclude)) {
				return filepath.SkipDir
			}
			return nil
		}

		if !opts.Match(path) || excluded(root, path, opts.Exclude) {
			return nil
		}
		fn(path)
		return nil
	})
}

func excluded(root, path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// DisplayPath returns path relative to the working directory when it lies
// inside it, and path unchanged otherwise. Node ids and reported files use
// this form.
func DisplayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
