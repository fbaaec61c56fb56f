package framework

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

// WaitDelay bounds how long a finished framework process may keep its output
// open through processes it left running in the background.
const WaitDelay = 2 * time.Second

// streamWriter hides any *os.File behind the writer so exec copies output
// through its own pipe instead of handing the descriptor to the child.
type streamWriter struct {
	io.Writer
}

// Command builds a framework subprocess writing to out.
func Command(ctx context.Context, out Streams, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = streamWriter{out.Stdout}
	cmd.Stderr = streamWriter{out.Stderr}
	cmd.WaitDelay = WaitDelay
	return cmd
}

// ExitStatus turns the result of cmd.Run into the process exit status. The
// error is non-nil only when the process could not be run at all.
func ExitStatus(err error) (int, error) {
	if err == nil || errors.Is(err, exec.ErrWaitDelay) {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
