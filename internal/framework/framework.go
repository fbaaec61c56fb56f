// Package framework defines the contract between the harness and the test
// frameworks it drives.
package framework

import (
	"context"
	"io"

	"github.com/testclerk/testclerk/internal/testcase"
)

// Name identifies a test framework
type Name string

const (
	NamePytest Name = "pytest"
	NameGoTest Name = "go"
	NameAuto   Name = "auto"
)

// Failure describes a collection attempt that failed, e.g. a file that does
// not import or parse.
type Failure struct {
	NodeID   string
	LongRepr string
}

// Listener receives discovery events in framework traversal order.
type Listener interface {
	OnItemCollected(item testcase.Metadata)
	OnCollectionFailed(failure Failure)
}

// Streams are the console writers a framework must use for its output.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

// RunOptions tune a test run
type RunOptions struct {
	Verbose bool
}

// Framework discovers and runs tests.
//
// Collect must not execute test bodies. An empty path list means the
// framework's default discovery roots. Run returns the framework's own exit
// status untouched. An error from either method means the framework could not
// be invoked at all; it is not a test failure.
type Framework interface {
	Name() Name
	Collect(ctx context.Context, paths []string, l Listener, out Streams) error
	Run(ctx context.Context, ids []string, opts RunOptions, out Streams) (int, error)
}
