// Package capture redirects the process standard streams into memory.
//
// os.Stdout and os.Stderr are process-wide. A Scope swaps both for pipes for
// as long as it is held, so anything written to them (by in-process code or by
// subprocesses handed the scope's streams) lands in the scope's buffers. Only
// one Scope can be held at a time; Acquire blocks until the previous holder
// releases. Callers must defer Release right after a successful Acquire.
package capture

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// held serializes scopes across the process.
var held sync.Mutex

// drainTimeout bounds how long Release waits for writers that inherited the
// pipes, such as processes left running in the background.
var drainTimeout = 5 * time.Second

// Scope is an active redirection of os.Stdout and os.Stderr.
type Scope struct {
	prevOut *os.File
	prevErr *os.File

	outR, outW *os.File
	errR, errW *os.File

	outBuf bytes.Buffer
	errBuf bytes.Buffer
	wg     sync.WaitGroup

	once   sync.Once
	stdout string
	stderr string
}

// Acquire installs the redirection.
func Acquire() (*Scope, error) {
	held.Lock()

	outR, outW, err := os.Pipe()
	if err != nil {
		held.Unlock()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		held.Unlock()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	s := &Scope{
		prevOut: os.Stdout,
		prevErr: os.Stderr,
		outR:    outR,
		outW:    outW,
		errR:    errR,
		errW:    errW,
	}

	s.wg.Add(2)
	go s.drain(&s.outBuf, outR)
	go s.drain(&s.errBuf, errR)

	os.Stdout = outW
	os.Stderr = errW

	return s, nil
}

func (s *Scope) drain(dst *bytes.Buffer, src io.Reader) {
	defer s.wg.Done()
	_, _ = io.Copy(dst, src)
}

// Stdout is the writer standing in for the process stdout.
func (s *Scope) Stdout() *os.File {
	return s.outW
}

// Stderr is the writer standing in for the process stderr.
func (s *Scope) Stderr() *os.File {
	return s.errW
}

// Release restores the previous streams and returns everything written to
// the scope. Calling it again returns the same text.
func (s *Scope) Release() (stdout, stderr string) {
	s.once.Do(func() {
		os.Stdout = s.prevOut
		os.Stderr = s.prevErr

		s.outW.Close()
		s.errW.Close()

		drained := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(drainTimeout):
			// closing the read ends stops the drains; later writes are lost
			s.outR.Close()
			s.errR.Close()
			<-drained
		}
		s.outR.Close()
		s.errR.Close()

		s.stdout = s.outBuf.String()
		s.stderr = s.errBuf.String()

		held.Unlock()
	})
	return s.stdout, s.stderr
}
