package ports

import (
	"context"

	"go.trai.ch/prov/internal/core/domain"
)

// RemoteClient talks to the remote record service.
//
// Errors wrap domain.ErrAuth, domain.ErrValidation and domain.ErrConflict for
// terminal outcomes and domain.ErrNetwork for transient ones.
//
//go:generate mockgen -source=remote.go -destination=mocks/mock_remote.go -package=mocks
type RemoteClient interface {
	// EnsureProject creates the project on the remote if it does not exist
	// and publishes its long name and description.
	EnsureProject(ctx context.Context, project domain.ProjectInfo) error
	// Push submits one record. Replaying the same idempotency key is a success.
	Push(ctx context.Context, project string, req domain.PushRequest) (domain.PushResult, error)
	// ListRecords returns the remote's summaries for a project.
	ListRecords(ctx context.Context, project string) ([]domain.RemoteSummary, error)
	// FetchRecord downloads the canonical document of a record by id.
	FetchRecord(ctx context.Context, project, id string) (*domain.Record, error)
	// FetchRecordByLabel downloads the record the remote holds under a label.
	FetchRecordByLabel(ctx context.Context, project, label string) (*domain.Record, error)
}

// RemoteFactory builds a client from a project's remote configuration.
type RemoteFactory interface {
	New(cfg domain.RemoteConfig) (RemoteClient, error)
}
