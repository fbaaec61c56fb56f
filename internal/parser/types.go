package parser

import (
	"errors"
	"path/filepath"
	"strings"
)

// Language represents a programming language
type Language string

const (
	LanguageGo      Language = "go"
	LanguagePython  Language = "python"
	LanguageUnknown Language = "unknown"
)

// ErrSyntax is returned when a source file does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// TestFile holds the tests statically discovered in one source file
type TestFile struct {
	Path     string
	Language Language
	Package  string // Go package name, empty for Python
	Tests    []TestFunc
}

// TestFunc is a single test function or method
type TestFunc struct {
	Name     string
	Classes  []string // Enclosing classes, outermost first
	Line     int      // Zero-based line of the definition (first decorator when decorated)
	Markers  []string // pytest marks applied to the test or its classes
	Parallel bool     // Go test calls t.Parallel()
}

// Class returns the innermost enclosing class, or "" for module-level tests.
func (f TestFunc) Class() string {
	if len(f.Classes) == 0 {
		return ""
	}
	return f.Classes[len(f.Classes)-1]
}

// DetectLanguage detects the programming language from file extension
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return LanguageGo
	case ".py":
		return LanguagePython
	default:
		return LanguageUnknown
	}
}
