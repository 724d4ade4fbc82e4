package vcs

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.VCSDetector    = (*Detector)(nil)
	_ ports.VersionControl = (*Git)(nil)
	_ ports.VersionControl = (*Mercurial)(nil)
	_ ports.VersionControl = (*Subversion)(nil)
	_ ports.VersionControl = None{}
)

// markers are checked in order at every directory level.
var markers = []struct {
	name string
	open func(workingCopy) ports.VersionControl
}{
	{".git", func(w workingCopy) ports.VersionControl { return &Git{w} }},
	{".hg", func(w workingCopy) ports.VersionControl { return &Mercurial{w} }},
	{".svn", func(w workingCopy) ports.VersionControl { return &Subversion{w} }},
}

// Detector finds the nearest enclosing working copy.
type Detector struct {
	run Runner
}

// NewDetector creates a Detector. A nil runner uses ExecRunner.
func NewDetector(run Runner) *Detector {
	if run == nil {
		run = ExecRunner
	}
	return &Detector{run: run}
}

// Detect walks up from root until a version control marker is found.
func (d *Detector) Detect(_ context.Context, root string) (ports.VersionControl, error) {
	dir, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve working copy path"), "path", root)
	}

	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m.name)); err == nil {
				return m.open(workingCopy{dir: dir, run: d.run}), nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return None{}, nil
		}
		dir = parent
	}
}
