// Package gotest drives the go tool as a test framework.
package gotest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/testclerk/testclerk/internal/framework"
	"github.com/testclerk/testclerk/internal/parser"
	"github.com/testclerk/testclerk/internal/testcase"
)

const nodeSep = "::"

// Framework implements framework.Framework for go test
type Framework struct {
	goBin   string
	exclude []string
}

// Option configures a Framework
type Option func(*Framework)

// WithGoBinary overrides the go executable
func WithGoBinary(bin string) Option {
	return func(f *Framework) { f.goBin = bin }
}

// WithExclude sets doublestar patterns skipped during collection
func WithExclude(patterns []string) Option {
	return func(f *Framework) { f.exclude = patterns }
}

// New creates a go test driver
func New(opts ...Option) *Framework {
	f := &Framework{goBin: "go"}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Framework) Name() framework.Name {
	return framework.NameGoTest
}

// Collect statically discovers TestXxx functions in *_test.go files.
func (f *Framework) Collect(ctx context.Context, paths []string, l framework.Listener, out framework.Streams) error {
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
		Match:   func(path string) bool { return strings.HasSuffix(path, "_test.go") },
		Exclude: f.exclude,
	}

	for _, root := range paths {
		err := framework.WalkTestFiles(ctx, root, walkOpts, func(path string) {
			f.collectFile(ctx, p, path, l)
		}, func(path string, err error) {
			l.OnCollectionFailed(framework.Failure{
				NodeID:   framework.DisplayPath(path),
				LongRepr: err.Error(),
			})
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

func (f *Framework) collectFile(ctx context.Context, p *parser.Parser, path string, l framework.Listener) {
	file := framework.DisplayPath(path)

	parsed, err := p.ParseTests(ctx, path)
	if err != nil {
		l.OnCollectionFailed(framework.Failure{
			NodeID:   file,
			LongRepr: fmt.Sprintf("ERROR collecting %s\n%v", file, err),
		})
		return
	}

	dirName := filepath.Base(filepath.Dir(path))
	for _, fn := range parsed.Tests {
		keywords := []string{fn.Name, filepath.Base(path), dirName, parsed.Package}
		if fn.Parallel {
			keywords = append(keywords, "parallel")
		}

		item, err := testcase.NewMetadata(
			file+nodeSep+fn.Name,
			fn.Name,
			file,
			fn.Line,
			keywords,
			parsed.Package,
			"",
			fn.Name,
		)
		if err != nil {
			l.OnCollectionFailed(framework.Failure{NodeID: file, LongRepr: err.Error()})
			continue
		}
		l.OnItemCollected(item)
	}
}

func skipDir(name string) bool {
	return name == "vendor" || name == "testdata" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// Run executes the selected tests. Node ids (<file>::<TestName>) are grouped
// per package directory; anything else is passed to go test as a package
// pattern. Invocations run one after another and the first non-zero status
// is returned.
func (f *Framework) Run(ctx context.Context, ids []string, opts framework.RunOptions, out framework.Streams) (int, error) {
	plan := planRun(ids)

	status := 0
	for _, inv := range plan {
		code, err := f.invoke(ctx, inv, opts, out)
		if err != nil {
			return code, err
		}
		if status == 0 && code != 0 {
			status = code
		}
	}
	return status, nil
}

// invocation is one go test call
type invocation struct {
	dir      string
	tests    []string
	patterns []string
}

func planRun(ids []string) []invocation {
	if len(ids) == 0 {
		return []invocation{{patterns: []string{"./..."}}}
	}

	var (
		plan     []invocation
		byDir    = make(map[string]int)
		patterns []string
	)
	for _, id := range ids {
		file, test, ok := strings.Cut(id, nodeSep)
		if !ok || test == "" {
			patterns = append(patterns, id)
			continue
		}

		dir := filepath.Dir(filepath.FromSlash(file))
		if strings.Contains(test, "/") {
			// a subtest path filters every level, so it cannot share a pattern
			plan = append(plan, invocation{dir: dir, tests: []string{test}})
			continue
		}
		idx, seen := byDir[dir]
		if !seen {
			idx = len(plan)
			byDir[dir] = idx
			plan = append(plan, invocation{dir: dir})
		}
		plan[idx].tests = append(plan[idx].tests, test)
	}

	if len(patterns) > 0 {
		plan = append(plan, invocation{patterns: patterns})
	}
	return plan
}

func (inv invocation) args(verbose bool) []string {
	args := []string{"test"}
	if verbose {
		args = append(args, "-v")
	}
	if len(inv.tests) > 0 {
		return append(args, "-run", runPattern(inv.tests), ".")
	}
	return append(args, inv.patterns...)
}

// runPattern anchors test names for -run. A single name may be a subtest path
// (TestA/sub), which go test matches level by level.
func runPattern(tests []string) string {
	if len(tests) == 1 {
		levels := strings.Split(tests[0], "/")
		for i, level := range levels {
			levels[i] = "^" + regexp.QuoteMeta(level) + "$"
		}
		return strings.Join(levels, "/")
	}

	quoted := make([]string, len(tests))
	for i, name := range tests {
		quoted[i] = regexp.QuoteMeta(name)
	}
	return "^(" + strings.Join(quoted, "|") + ")$"
}

func (f *Framework) invoke(ctx context.Context, inv invocation, opts framework.RunOptions, out framework.Streams) (int, error) {
	args := inv.args(opts.Verbose)

	cmd := framework.Command(ctx, out, f.goBin, args...)
	cmd.Dir = inv.dir

	log.Debug().
		Str("dir", inv.dir).
		Strs("args", args).
		Msg("running go test")

	code, err := framework.ExitStatus(cmd.Run())
	if err != nil {
		return code, fmt.Errorf("failed to run %s: %w", f.goBin, err)
	}
	return code, nil
}
