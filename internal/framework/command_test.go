package framework

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCommand_DoesNotHandFilesToChild(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	defer f.Close()

	cmd := Command(context.Background(), Streams{Stdout: f, Stderr: f}, "sh", "-c", "true")

	_, isFile := cmd.Stdout.(*os.File)
	assert.False(t, isFile)
	_, isFile = cmd.Stderr.(*os.File)
	assert.False(t, isFile)
	assert.Equal(t, WaitDelay, cmd.WaitDelay)
}

func TestCommand_BackgroundChildDoesNotBlock(t *testing.T) {
	requireShell(t)

	var stdout, stderr bytes.Buffer
	cmd := Command(context.Background(), Streams{Stdout: &stdout, Stderr: &stderr}, "sh", "-c", "echo out; sleep 10 &")

	start := time.Now()
	code, err := ExitStatus(cmd.Run())
	require.NoError(t, err)

	assert.Equal(t, 0, code)
	assert.Equal(t, "out\n", stdout.String())
	assert.Less(t, time.Since(start), 8*time.Second)
}

func TestExitStatus(t *testing.T) {
	code, err := ExitStatus(nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, code)

	code, err = ExitStatus(exec.ErrWaitDelay)
	assert.NoError(t, err)
	assert.Equal(t, 0, code)

	boom := errors.New("exec: not found")
	code, err = ExitStatus(boom)
	assert.Same(t, boom, err)
	assert.Equal(t, -1, code)
}

func TestExitStatus_ProcessCode(t *testing.T) {
	requireShell(t)

	code, err := ExitStatus(exec.Command("sh", "-c", "exit 3").Run())
	require.NoError(t, err)
	assert.Equal(t, 3, code)
}
