package vcs

import (
	"context"

	"go.trai.ch/prov/internal/core/domain"
)

// None stands in for a directory outside any working copy.
type None struct{}

// Kind implements ports.VersionControl.
func (None) Kind() domain.VCSKind { return domain.VCSNone }

// CurrentRevision implements ports.VersionControl.
func (None) CurrentRevision(context.Context) (string, bool, error) { return "", false, nil }

// IsDirty implements ports.VersionControl.
func (None) IsDirty(context.Context) (bool, error) { return false, nil }

// Diff implements ports.VersionControl.
func (None) Diff(context.Context) (string, bool, error) { return "", false, nil }
