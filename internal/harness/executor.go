package harness

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/testclerk/testclerk/internal/capture"
	"github.com/testclerk/testclerk/internal/framework"
)

// Result holds the outcome of a test run
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Passed reports whether the framework returned a zero status
func (r Result) Passed() bool {
	return r.ExitCode == 0
}

// Executor runs tests and captures their console output
type Executor struct {
	fw framework.Framework
}

// NewExecutor creates an executor for the given framework
func NewExecutor(fw framework.Framework) *Executor {
	return &Executor{fw: fw}
}

// Run executes the given test ids. An empty list leaves target selection to
// the framework. The exit code is the framework's own status. An error means
// the framework could not be invoked; the captured text is still returned.
func (e *Executor) Run(ctx context.Context, ids []string, verbose bool) (res Result, err error) {
	scope, err := capture.Acquire()
	if err != nil {
		return Result{}, err
	}
	defer func() {
		res.Stdout, res.Stderr = scope.Release()
	}()

	log.Info().
		Str("framework", string(e.fw.Name())).
		Int("tests", len(ids)).
		Bool("verbose", verbose).
		Msg("running tests")

	res.ExitCode, err = e.fw.Run(ctx, ids, framework.RunOptions{Verbose: verbose}, framework.Streams{
		Stdout: scope.Stdout(),
		Stderr: scope.Stderr(),
	})
	return res, err
}
