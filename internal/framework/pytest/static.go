package pytest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/testclerk/testclerk/internal/framework"
	"github.com/testclerk/testclerk/internal/parser"
	"github.com/testclerk/testclerk/internal/testcase"
)

// norecursedirs defaults of pytest, plus bytecode caches
var skippedDirs = map[string]bool{
	"_darcs":       true,
	"build":        true,
	"CVS":          true,
	"dist":         true,
	"node_modules": true,
	"venv":         true,
	"{arch}":       true,
	"__pycache__":  true,
}

func skipDir(name string) bool {
	return skippedDirs[name] || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".egg")
}

// isTestFile applies pytest's default python_files patterns.
func isTestFile(path string) bool {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".py") {
		return false
	}
	return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py")
}

func (f *Framework) collectStatic(ctx context.Context, paths []string, l framework.Listener, out framework.Streams) error {
	if len(paths) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		paths = []string{wd}
	}

	p := parser.NewParser()
	walkOpts := framework.WalkOptions{
		SkipDir: skipDir,
		Match:   isTestFile,
		Exclude: f.exclude,
	}

	for _, root := range paths {
		err := framework.WalkTestFiles(ctx, root, walkOpts, func(path string) {
			collectFile(ctx, p, path, l)
		}, func(path string, err error) {
			l.OnCollectionFailed(framework.Failure{NodeID: framework.DisplayPath(path), LongRepr: err.Error()})
		})
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(out.Stderr, "ERROR: file or directory not found: %s\n", root)
				l.OnCollectionFailed(framework.Failure{NodeID: framework.DisplayPath(root), LongRepr: err.Error()})
				continue
			}
			return err
		}
	}
	return nil
}

func collectFile(ctx context.Context, p *parser.Parser, path string, l framework.Listener) {
	file := framework.DisplayPath(path)

	parsed, err := p.ParseTests(ctx, path)
	if err != nil {
		l.OnCollectionFailed(framework.Failure{
			NodeID:   file,
			LongRepr: fmt.Sprintf("ERROR collecting %s\n%v", file, err),
		})
		return
	}

	module := moduleName(path)
	for _, fn := range parsed.Tests {
		parts := append([]string{file}, fn.Classes...)
		nodeID := strings.Join(append(parts, fn.Name), "::")

		keywords := []string{fn.Name}
		keywords = append(keywords, fn.Markers...)
		for i := len(fn.Classes) - 1; i >= 0; i-- {
			keywords = append(keywords, fn.Classes[i])
		}
		keywords = append(keywords, filepath.Base(path), filepath.Base(filepath.Dir(path)))

		item, err := testcase.NewMetadata(nodeID, fn.Name, file, fn.Line, keywords, module, fn.Class(), fn.Name)
		if err != nil {
			l.OnCollectionFailed(framework.Failure{NodeID: nodeID, LongRepr: err.Error()})
			continue
		}
		l.OnItemCollected(item)
	}
}

// moduleName derives the dotted import name pytest would use in its default
// import mode: the file stem prefixed by every enclosing package directory.
func moduleName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".py")
	dir := filepath.Dir(path)
	for {
		if _, err := os.Stat(filepath.Join(dir, "__init__.py")); err != nil {
			return name
		}
		name = filepath.Base(dir) + "." + name
		parent := filepath.Dir(dir)
		if parent == dir {
			return name
		}
		dir = parent
	}
}
