// Package clierr defines the command-line error kinds and their exit codes.
package clierr

import (
	"errors"
	"fmt"
)

// Code is a process exit status
type Code int

const (
	Success     Code = 0
	Runtime     Code = 1
	Input       Code = 2
	Environment Code = 3
	Execution   Code = 4
	Access      Code = 5
	Generation  Code = 6
	Output      Code = 7
)

// DefaultHelp is shown when an error carries no help text of its own
const DefaultHelp = "Help is available with --help. Use the -v flag to increase output verbosity."

// Error is an error meant for the user, with the exit code it maps to.
type Error struct {
	Code    Code
	Message string
	Help    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HelpText returns the help text, falling back to DefaultHelp
func (e *Error) HelpText() string {
	if e.Help == "" {
		return DefaultHelp
	}
	return e.Help
}

// WithHelp returns a copy of e with the given help text
func (e *Error) WithHelp(help string) *Error {
	c := *e
	c.Help = help
	return &c
}

func newError(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func NewRuntime(err error, format string, args ...any) *Error {
	return newError(Runtime, err, format, args...)
}

func NewInput(err error, format string, args ...any) *Error {
	return newError(Input, err, format, args...)
}

func NewEnvironment(err error, format string, args ...any) *Error {
	return newError(Environment, err, format, args...)
}

func NewExecution(err error, format string, args ...any) *Error {
	return newError(Execution, err, format, args...)
}

func NewAccess(err error, format string, args ...any) *Error {
	return newError(Access, err, format, args...)
}

func NewGeneration(err error, format string, args ...any) *Error {
	return newError(Generation, err, format, args...)
}

func NewOutput(err error, format string, args ...any) *Error {
	return newError(Output, err, format, args...)
}

// ExitCode maps err to a process exit status. nil maps to Success and errors
// that are not *Error map to Runtime.
func ExitCode(err error) int {
	if err == nil {
		return int(Success)
	}
	var cliErr *Error
	if errors.As(err, &cliErr) {
		return int(cliErr.Code)
	}
	return int(Runtime)
}
