// Package testcase holds the discovered-test model shared by the framework
// drivers and the harness.
package testcase

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyNodeID  = errors.New("node id must not be empty")
	ErrNegativeLine = errors.New("line number must not be negative")
)

// Metadata describes one discovered test case.
//
// Module, Class and Function are empty when the item has no enclosing module
// or class, or when the function name could not be determined. A Metadata is
// built once per collected item and is not modified afterwards.
type Metadata struct {
	NodeID     string `json:"node_id"`
	Name       string `json:"name"`
	File       string `json:"file"`
	LineNumber int    `json:"line_number"`
	Module     string `json:"module,omitempty"`
	Class      string `json:"cls,omitempty"`
	Function   string `json:"function,omitempty"`

	keywords []string
}

// NewMetadata validates and builds a Metadata. The keyword slice is copied.
func NewMetadata(nodeID, name, file string, line int, keywords []string, module, class, function string) (Metadata, error) {
	if nodeID == "" {
		return Metadata{}, ErrEmptyNodeID
	}
	if line < 0 {
		return Metadata{}, fmt.Errorf("%w: %s at line %d", ErrNegativeLine, nodeID, line)
	}

	kw := make([]string, len(keywords))
	copy(kw, keywords)

	return Metadata{
		NodeID:     nodeID,
		Name:       name,
		File:       file,
		LineNumber: line,
		Module:     module,
		Class:      class,
		Function:   function,
		keywords:   kw,
	}, nil
}

// Keywords returns the tags reported for the test, in framework order.
// Duplicates are kept.
func (m Metadata) Keywords() []string {
	kw := make([]string, len(m.keywords))
	copy(kw, m.keywords)
	return kw
}

// ClassKey returns the tree bucket this test belongs to.
func (m Metadata) ClassKey() ClassKey {
	if m.Class == "" {
		return NoClass
	}
	return Class(m.Class)
}
