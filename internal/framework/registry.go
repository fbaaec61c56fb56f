package framework

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Registry manages framework drivers
type Registry struct {
	frameworks map[Name]Framework
}

// NewRegistry creates a registry holding the given frameworks
func NewRegistry(frameworks ...Framework) *Registry {
	r := &Registry{
		frameworks: make(map[Name]Framework),
	}
	for _, fw := range frameworks {
		r.Register(fw)
	}
	return r
}

// Register adds a framework to the registry
func (r *Registry) Register(fw Framework) {
	r.frameworks[fw.Name()] = fw
}

// Get returns a framework by name
func (r *Registry) Get(name Name) (Framework, error) {
	fw, ok := r.frameworks[name]
	if !ok {
		return nil, fmt.Errorf("unknown test framework: %s", name)
	}
	return fw, nil
}

// Resolve returns the named framework, detecting it from dir when name is
// empty or NameAuto.
func (r *Registry) Resolve(name Name, dir string) (Framework, error) {
	if name == "" || name == NameAuto {
		name = Detect(dir)
	}
	return r.Get(name)
}

// List returns all registered framework names, sorted
func (r *Registry) List() []Name {
	names := make([]Name, 0, len(r.frameworks))
	for n := range r.frameworks {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Detect picks the framework for a project directory: go when the directory
// holds a go.mod, pytest otherwise.
func Detect(dir string) Name {
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
		return NameGoTest
	}
	return NamePytest
}
