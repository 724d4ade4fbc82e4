package ports

import (
	"context"

	"go.trai.ch/prov/internal/core/domain"
)

// DependencyResolver turns declared paths into content-addressed dependencies.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type DependencyResolver interface {
	// Resolve expands patterns relative to root and digests every matched file.
	// The result follows the declared order, globs sorted, without duplicates.
	Resolve(ctx context.Context, root string, patterns []string) ([]domain.Dependency, error)

	// Describe digests a single file. Missing files yield a dependency without digest.
	Describe(ctx context.Context, root, path string) (domain.Dependency, error)
}
