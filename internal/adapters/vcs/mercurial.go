package vcs

import (
	"context"
	"strings"

	"go.trai.ch/prov/internal/core/domain"
)

// hgNullRevision is printed for a repository without commits.
const hgNullRevision = "000000000000"

// Mercurial reads state from a Mercurial working copy.
type Mercurial struct {
	workingCopy
}

// Kind implements ports.VersionControl.
func (m *Mercurial) Kind() domain.VCSKind { return domain.VCSMercurial }

// CurrentRevision returns the short node id of the working copy parent.
func (m *Mercurial) CurrentRevision(ctx context.Context) (string, bool, error) {
	res, err := m.output(ctx, nil, "hg", "log", "-r", ".", "--template", "{node|short}")
	if err != nil {
		return "", false, err
	}
	rev := strings.TrimSpace(res.Stdout)
	if rev == "" || rev == hgNullRevision {
		return "", false, nil
	}
	return rev, true, nil
}

// IsDirty reports modified, removed or missing files.
func (m *Mercurial) IsDirty(ctx context.Context) (bool, error) {
	res, err := m.output(ctx, nil, "hg", "status", "-mrd")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// Diff returns the uncommitted changes without dates.
func (m *Mercurial) Diff(ctx context.Context) (string, bool, error) {
	res, err := m.output(ctx, nil, "hg", "diff", "--nodates")
	if err != nil {
		return "", false, err
	}
	return res.Stdout, res.Stdout != "", nil
}
