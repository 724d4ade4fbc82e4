package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.DependencyResolver = (*Resolver)(nil)

// Resolver implements ports.DependencyResolver on the local file system.
type Resolver struct {
	hasher *Hasher
	walker *Walker
	limit  int
}

// NewResolver creates a Resolver hashing up to NumCPU files concurrently.
func NewResolver(hasher *Hasher, walker *Walker) *Resolver {
	return &Resolver{
		hasher: hasher,
		walker: walker,
		limit:  runtime.NumCPU(),
	}
}

// Resolve expands patterns and digests every matched file.
func (r *Resolver) Resolve(ctx context.Context, root string, patterns []string) ([]domain.Dependency, error) {
	paths, err := r.expand(root, patterns)
	if err != nil {
		return nil, err
	}

	deps := make([]domain.Dependency, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fd, err := r.hasher.Digest(path)
			if err != nil {
				return err
			}
			deps[i] = domain.Dependency{
				Path:    relPath(root, path),
				Digest:  fd.Digest,
				Size:    fd.Size,
				ModTime: fd.ModTime,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, zerr.Wrap(err, "failed to resolve dependencies")
	}
	return deps, nil
}

// Describe digests a single file. A missing file yields a dependency with only its path.
func (r *Resolver) Describe(_ context.Context, root, path string) (domain.Dependency, error) {
	abs := absPath(root, path)
	fd, err := r.hasher.Digest(abs)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return domain.Dependency{Path: relPath(root, abs)}, nil
		}
		return domain.Dependency{}, err
	}
	return domain.Dependency{
		Path:    relPath(root, abs),
		Digest:  fd.Digest,
		Size:    fd.Size,
		ModTime: fd.ModTime,
	}, nil
}

// expand resolves patterns to absolute file paths in declared order without duplicates.
func (r *Resolver) expand(root string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			result = append(result, path)
		}
	}

	for _, pattern := range patterns {
		path := absPath(root, pattern)

		matches := []string{path}
		if _, err := os.Stat(path); err != nil {
			globbed, globErr := filepath.Glob(path)
			if globErr != nil {
				return nil, zerr.With(zerr.Wrap(globErr, "failed to glob path"), "path", path)
			}
			if len(globbed) == 0 {
				return nil, zerr.With(zerr.Wrap(domain.ErrInputNotFound, "no file matches dependency"), "path", pattern)
			}
			matches = globbed
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", match)
			}
			if !info.IsDir() {
				add(match)
				continue
			}
			for file, err := range r.walker.WalkFiles(match, nil) {
				if err != nil {
					return nil, zerr.With(zerr.Wrap(err, "failed to walk directory"), "path", match)
				}
				add(file)
			}
		}
	}

	return result, nil
}

func absPath(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

// relPath returns path relative to root with forward slashes, or the cleaned
// absolute path when it lies outside root.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
