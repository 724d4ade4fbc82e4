// Package program identifies the executable behind a monitored run.
package program

import (
	"path/filepath"
	"strings"
)

// Program describes a known simulator or interpreter.
type Program struct {
	// Name is the display name stored in records.
	Name string
	// Executables are the file names the program is invoked as.
	Executables []string
	// Extensions are the script extensions the program runs.
	Extensions []string
}

// Registry maps executable names and script extensions to programs.
type Registry struct {
	byExecutable map[string]Program
	byExtension  map[string]Program
}

// NewRegistry creates a registry holding programs.
func NewRegistry(programs ...Program) *Registry {
	r := &Registry{
		byExecutable: make(map[string]Program),
		byExtension:  make(map[string]Program),
	}
	for _, p := range programs {
		r.Register(p)
	}
	return r
}

// DefaultRegistry knows the simulators and interpreters commonly used for experiments.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Program{Name: "NEURON", Executables: []string{"nrniv", "nrngui"}, Extensions: []string{".hoc", ".oc"}},
		Program{Name: "Python", Executables: []string{"python", "python2", "python3"}, Extensions: []string{".py"}},
		Program{Name: "NEST", Executables: []string{"nest"}, Extensions: []string{".sli"}},
		Program{Name: "GENESIS", Executables: []string{"genesis"}, Extensions: []string{".g"}},
	)
}

// Register adds p. Later registrations win.
func (r *Registry) Register(p Program) {
	for _, exe := range p.Executables {
		r.byExecutable[exe] = p
	}
	for _, ext := range p.Extensions {
		r.byExtension[strings.ToLower(ext)] = p
	}
}

// ByExecutable looks up the program invoked as path.
func (r *Registry) ByExecutable(path string) (Program, bool) {
	p, ok := r.byExecutable[filepath.Base(path)]
	return p, ok
}

// ByScript looks up the program that runs script.
func (r *Registry) ByScript(script string) (Program, bool) {
	p, ok := r.byExtension[strings.ToLower(filepath.Ext(script))]
	return p, ok
}
