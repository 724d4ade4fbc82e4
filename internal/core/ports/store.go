package ports

import (
	"context"
	"iter"

	"go.trai.ch/prov/internal/core/domain"
)

// RecordStore persists records and their deduplicated dependencies per project.
//
// Mutating operations hold the project's exclusive writer lock. Reads take no
// lock and observe the last atomically written index.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type RecordStore interface {
	// Put stores a new record. It fails with domain.ErrDuplicateLabel when the
	// label is taken and overwrite is false. With overwrite the label moves to
	// the new record and the prior record stays retrievable by id.
	Put(ctx context.Context, p domain.Project, rec *domain.Record, overwrite bool) error

	// Get resolves labelOrID, trying labels first.
	Get(ctx context.Context, p domain.Project, labelOrID string) (*domain.Record, error)

	// List yields matching records in creation order. Each iteration re-reads the index.
	List(ctx context.Context, p domain.Project, filter domain.Filter) iter.Seq2[*domain.Record, error]

	// MostRecent returns the last created record of the project.
	MostRecent(ctx context.Context, p domain.Project) (*domain.Record, error)

	// Update replaces the content of a record that is still content-mutable.
	Update(ctx context.Context, p domain.Project, rec *domain.Record) error

	// UpdateSync applies fn to the record's sync metadata under the lock.
	// The resulting state must be reachable from the current one.
	UpdateSync(ctx context.Context, p domain.Project, id string, fn func(*domain.SyncMeta) error) (*domain.Record, error)

	// Delete removes a record and releases its dependency references.
	Delete(ctx context.Context, p domain.Project, labelOrID string) error

	// DeleteByTag removes every record carrying tag and returns how many were removed.
	DeleteByTag(ctx context.Context, p domain.Project, tag string) (int, error)

	// Rename reassigns a record's label through the duplicate-label check.
	// Renaming a conflicted record re-queues it.
	Rename(ctx context.Context, p domain.Project, labelOrID, newLabel string, overwrite bool) (*domain.Record, error)

	// Retag adds and removes tags on a content-mutable record.
	Retag(ctx context.Context, p domain.Project, labelOrID string, add, remove []string) (*domain.Record, error)

	// LastDigest returns the digest last recorded for a dependency path.
	LastDigest(ctx context.Context, p domain.Project, path string) (string, bool, error)

	// PendingDependencies returns the bodies of the given digests not yet known to the remote.
	PendingDependencies(ctx context.Context, p domain.Project, digests []string) ([]domain.DependencyBody, error)

	// MarkDependenciesRemote records that the remote holds the given digests.
	MarkDependenciesRemote(ctx context.Context, p domain.Project, digests []string) error

	// Snapshot copies the content of src into the store, verifying dep.Digest.
	Snapshot(ctx context.Context, p domain.Project, dep domain.Dependency, src string) error

	// Projects lists the projects with a store below root.
	Projects(ctx context.Context, root string) ([]string, error)
}
