package vcs

import (
	"context"
	"strings"

	"go.trai.ch/prov/internal/core/domain"
)

// Git reads state from a Git working copy.
type Git struct {
	workingCopy
}

// Kind implements ports.VersionControl.
func (g *Git) Kind() domain.VCSKind { return domain.VCSGit }

// CurrentRevision returns the full commit hash of HEAD. A repository
// without commits has no revision.
func (g *Git) CurrentRevision(ctx context.Context) (string, bool, error) {
	res, err := g.output(ctx, []int{1}, "git", "rev-parse", "--verify", "--quiet", "HEAD")
	if err != nil {
		return "", false, err
	}
	rev := strings.TrimSpace(res.Stdout)
	if res.ExitCode != 0 || rev == "" {
		return "", false, nil
	}
	return rev, true, nil
}

// IsDirty reports modified tracked files. Untracked files are ignored.
func (g *Git) IsDirty(ctx context.Context) (bool, error) {
	res, err := g.output(ctx, nil, "git", "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// Diff returns the changes of the working copy against HEAD.
func (g *Git) Diff(ctx context.Context) (string, bool, error) {
	args := []string{"diff", "--no-color", "--no-ext-diff"}
	if _, ok, err := g.CurrentRevision(ctx); err != nil {
		return "", false, err
	} else if ok {
		args = append(args, "HEAD")
	}
	res, err := g.output(ctx, nil, "git", args...)
	if err != nil {
		return "", false, err
	}
	return res.Stdout, res.Stdout != "", nil
}
