package vcs

import (
	"context"
	"strings"

	"go.trai.ch/prov/internal/core/domain"
)

// Subversion reads state from a Subversion working copy.
type Subversion struct {
	workingCopy
}

// Kind implements ports.VersionControl.
func (s *Subversion) Kind() domain.VCSKind { return domain.VCSSubversion }

// CurrentRevision returns the revision of the working copy root.
func (s *Subversion) CurrentRevision(ctx context.Context) (string, bool, error) {
	res, err := s.output(ctx, nil, "svn", "info", "--show-item", "revision")
	if err != nil {
		return "", false, err
	}
	rev := strings.TrimSpace(res.Stdout)
	return rev, rev != "", nil
}

// IsDirty reports local modifications to versioned files.
func (s *Subversion) IsDirty(ctx context.Context) (bool, error) {
	res, err := s.output(ctx, nil, "svn", "status", "-q")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// Diff returns the local modifications.
func (s *Subversion) Diff(ctx context.Context) (string, bool, error) {
	res, err := s.output(ctx, nil, "svn", "diff")
	if err != nil {
		return "", false, err
	}
	return res.Stdout, res.Stdout != "", nil
}
