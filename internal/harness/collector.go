// Package harness runs test discovery and test execution through a framework
// driver while keeping the process's real console streams untouched.
package harness

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/testclerk/testclerk/internal/capture"
	"github.com/testclerk/testclerk/internal/framework"
	"github.com/testclerk/testclerk/internal/testcase"
)

// Collector discovers tests without running them
type Collector struct {
	fw framework.Framework
}

// NewCollector creates a collector for the given framework
func NewCollector(fw framework.Framework) *Collector {
	return &Collector{fw: fw}
}

// itemRecorder accumulates collected items in framework order
type itemRecorder struct {
	items    []testcase.Metadata
	failures int
}

func (r *itemRecorder) OnItemCollected(item testcase.Metadata) {
	r.items = append(r.items, item)
}

func (r *itemRecorder) OnCollectionFailed(f framework.Failure) {
	r.failures++
	log.Error().Str("node_id", f.NodeID).Msg(f.LongRepr)
}

// Collect returns metadata for every test reachable from paths. Files that
// fail to collect are logged and left out. Console text the framework
// produces while scanning is discarded.
func (c *Collector) Collect(ctx context.Context, paths []string) ([]testcase.Metadata, error) {
	resolved, err := resolvePaths(paths)
	if err != nil {
		return nil, err
	}

	scope, err := capture.Acquire()
	if err != nil {
		return nil, err
	}
	rec := &itemRecorder{}
	defer func() {
		stdout, stderr := scope.Release()
		log.Debug().
			Str("framework", string(c.fw.Name())).
			Int("items", len(rec.items)).
			Int("failures", rec.failures).
			Int("stdout_bytes", len(stdout)).
			Int("stderr_bytes", len(stderr)).
			Msg("collection finished")
	}()

	if err := c.fw.Collect(ctx, resolved, rec, framework.Streams{
		Stdout: scope.Stdout(),
		Stderr: scope.Stderr(),
	}); err != nil {
		return nil, err
	}
	return rec.items, nil
}

// CollectAllTests returns the node ids of every collected test.
func (c *Collector) CollectAllTests(ctx context.Context, paths []string) ([]string, error) {
	items, err := c.Collect(ctx, paths)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.NodeID
	}
	return ids, nil
}

// TestTree groups collected tests by file and class.
func (c *Collector) TestTree(ctx context.Context, paths []string) (*testcase.Tree, error) {
	items, err := c.Collect(ctx, paths)
	if err != nil {
		return nil, err
	}
	return testcase.Build(items), nil
}

// resolvePaths makes every path absolute and free of symlinks. Paths that do
// not exist are kept absolute so the framework can report them.
func resolvePaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		if real, err := filepath.EvalSymlinks(abs); err == nil {
			abs = real
		}
		out = append(out, abs)
	}
	return out, nil
}
