package domain

import (
	"path/filepath"
	"regexp"
	"time"

	"go.trai.ch/zerr"
)

var validProjectNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Project is a named collection of records rooted at a directory holding .prov.
type Project struct {
	Name string
	Root string
	// LockTimeout bounds the wait for the store's writer lock. Zero uses DefaultLockTimeout.
	LockTimeout time.Duration
}

// NewProject validates name and returns a Project rooted at root.
func NewProject(name, root string) (Project, error) {
	if err := ValidateProjectName(name); err != nil {
		return Project{}, err
	}
	return Project{Name: name, Root: root}, nil
}

// ValidateProjectName checks that name is usable as a directory and URL segment.
func ValidateProjectName(name string) error {
	if !validProjectNameRegex.MatchString(name) {
		return zerr.With(zerr.Wrap(ErrInvalidProjectName, "invalid project name"), "project", name)
	}
	return nil
}

// StoreDir returns the directory holding the project's records.
func (p Project) StoreDir() string {
	return filepath.Join(p.Root, DefaultStorePath(), p.Name)
}
