// Package pytest drives pytest as a test framework.
//
// Collection normally runs pytest in collect-only mode with a small plugin
// that streams item and failure events back as JSON lines. When no Python
// interpreter (or no pytest) is available, or static mode is configured, the
// test files are scanned with tree-sitter using pytest's default naming rules.
package pytest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/testclerk/testclerk/internal/framework"
	"github.com/testclerk/testclerk/internal/testcase"
)

//go:embed collector_plugin.py
var collectorPlugin []byte

const (
	pluginModule = "testclerk_collector"
	reportEnv    = "TESTCLERK_COLLECT_REPORT"
)

// pytest exit statuses that mean pytest itself failed
const (
	exitInternalError = 3
	exitUsageError    = 4
)

// ErrPytestUnavailable is returned when the interpreter cannot import pytest.
var ErrPytestUnavailable = errors.New("pytest is not installed for this interpreter")

// CollectMode selects how tests are discovered
type CollectMode string

const (
	ModePlugin CollectMode = "plugin"
	ModeStatic CollectMode = "static"
)

// Framework implements framework.Framework for pytest
type Framework struct {
	python  string
	mode    CollectMode
	exclude []string
}

// Option configures a Framework
type Option func(*Framework)

// WithPython sets the interpreter used to run pytest
func WithPython(python string) Option {
	return func(f *Framework) { f.python = python }
}

// WithCollectMode sets the collection mode
func WithCollectMode(mode CollectMode) Option {
	return func(f *Framework) { f.mode = mode }
}

// WithExclude sets doublestar patterns skipped by static collection
func WithExclude(patterns []string) Option {
	return func(f *Framework) { f.exclude = patterns }
}

// New creates a pytest driver
func New(opts ...Option) *Framework {
	f := &Framework{
		python: "python3",
		mode:   ModePlugin,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Framework) Name() framework.Name {
	return framework.NamePytest
}

// Collect discovers tests without running them.
func (f *Framework) Collect(ctx context.Context, paths []string, l framework.Listener, out framework.Streams) error {
	if f.mode == ModeStatic {
		return f.collectStatic(ctx, paths, l, out)
	}

	if _, err := exec.LookPath(f.python); err != nil {
		log.Warn().Str("python", f.python).Msg("python interpreter not found, using static collection")
		return f.collectStatic(ctx, paths, l, out)
	}

	err := f.collectPlugin(ctx, paths, l, out)
	if errors.Is(err, ErrPytestUnavailable) {
		log.Warn().Str("python", f.python).Msg("pytest not importable, using static collection")
		return f.collectStatic(ctx, paths, l, out)
	}
	return err
}

// event is one JSON line written by the collector plugin
type event struct {
	Event      string   `json:"event"`
	NodeID     string   `json:"node_id"`
	Name       string   `json:"name"`
	File       string   `json:"file"`
	LineNumber int      `json:"line_number"`
	Keywords   []string `json:"keywords"`
	Module     *string  `json:"module"`
	Cls        *string  `json:"cls"`
	Function   *string  `json:"function"`
	LongRepr   string   `json:"longrepr"`
}

func (f *Framework) collectPlugin(ctx context.Context, paths []string, l framework.Listener, out framework.Streams) error {
	tmpDir, err := os.MkdirTemp("", "testclerk-collect-*")
	if err != nil {
		return fmt.Errorf("failed to create plugin directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := os.WriteFile(filepath.Join(tmpDir, pluginModule+".py"), collectorPlugin, 0644); err != nil {
		return fmt.Errorf("failed to write collector plugin: %w", err)
	}
	reportPath := filepath.Join(tmpDir, "events.jsonl")

	args := []string{"-m", "pytest", "--collect-only", "-q", "-p", "no:warnings", "-p", pluginModule}
	args = append(args, paths...)

	var stderr bytes.Buffer
	cmd := framework.Command(ctx, framework.Streams{
		Stdout: out.Stdout,
		Stderr: io.MultiWriter(out.Stderr, &stderr),
	}, f.python, args...)
	cmd.Env = append(os.Environ(),
		"PYTHONPATH="+joinPythonPath(tmpDir, os.Getenv("PYTHONPATH")),
		reportEnv+"="+reportPath,
	)

	log.Debug().Strs("args", args).Msg("collecting pytest items")

	code, err := framework.ExitStatus(cmd.Run())
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", f.python, err)
	}
	if code != 0 {
		switch {
		case strings.Contains(stderr.String(), "No module named pytest"):
			return ErrPytestUnavailable
		case code == exitInternalError || code == exitUsageError:
			return fmt.Errorf("pytest collection failed with exit code %d: %s", code, strings.TrimSpace(stderr.String()))
		}
	}

	return replayEvents(reportPath, l)
}

func joinPythonPath(first, rest string) string {
	if rest == "" {
		return first
	}
	return first + string(os.PathListSeparator) + rest
}

// replayEvents feeds the plugin's events to the listener in emission order.
func replayEvents(path string, l framework.Listener) error {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open collection report: %w", err)
	}
	defer file.Close()

	dec := json.NewDecoder(file)
	for {
		var ev event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to decode collection report: %w", err)
		}

		switch ev.Event {
		case "item":
			item, err := testcase.NewMetadata(ev.NodeID, ev.Name, ev.File, ev.LineNumber, ev.Keywords,
				deref(ev.Module), deref(ev.Cls), deref(ev.Function))
			if err != nil {
				l.OnCollectionFailed(framework.Failure{NodeID: ev.NodeID, LongRepr: err.Error()})
				continue
			}
			l.OnItemCollected(item)
		case "collect_failed":
			l.OnCollectionFailed(framework.Failure{NodeID: ev.NodeID, LongRepr: ev.LongRepr})
		default:
			log.Debug().Str("event", ev.Event).Msg("ignoring unknown collection event")
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Run executes pytest with the given node ids.
func (f *Framework) Run(ctx context.Context, ids []string, opts framework.RunOptions, out framework.Streams) (int, error) {
	args := []string{"-m", "pytest"}
	if opts.Verbose {
		args = append(args, "-vv")
	}
	args = append(args, ids...)

	cmd := framework.Command(ctx, out, f.python, args...)

	log.Debug().Strs("args", args).Msg("running pytest")

	code, err := framework.ExitStatus(cmd.Run())
	if err != nil {
		return code, fmt.Errorf("failed to run %s: %w", f.python, err)
	}
	return code, nil
}
