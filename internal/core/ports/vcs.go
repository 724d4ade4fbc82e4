package ports

import (
	"context"

	"go.trai.ch/prov/internal/core/domain"
)

//go:generate mockgen -source=vcs.go -destination=mocks/mock_vcs.go -package=mocks

// VersionControl is the capability a working copy exposes to capture.
type VersionControl interface {
	// Kind identifies the version control system.
	Kind() domain.VCSKind
	// CurrentRevision returns the checked-out revision. ok is false when there is none.
	CurrentRevision(ctx context.Context) (rev string, ok bool, err error)
	// IsDirty reports uncommitted changes to tracked files.
	IsDirty(ctx context.Context) (bool, error)
	// Diff returns the uncommitted changes as a patch. ok is false when there is nothing to show.
	Diff(ctx context.Context) (patch string, ok bool, err error)
}

// VCSDetector finds the working copy enclosing a directory.
type VCSDetector interface {
	// Detect returns the version control of root, or a VCSNone implementation.
	Detect(ctx context.Context, root string) (VersionControl, error)
}
