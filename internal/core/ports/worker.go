package ports

import (
	"context"
	"time"
)

//go:generate mockgen -source=worker.go -destination=mocks/mock_worker.go -package=mocks

// WorkerStatus represents the state of the background sync worker.
type WorkerStatus struct {
	Running   bool
	PID       int
	StartedAt time.Time
}

// WorkerSpawner manages the background sync worker from the CLI perspective.
type WorkerSpawner interface {
	// Spawn starts a detached worker for project unless one is already running.
	Spawn(ctx context.Context, root, project string) error

	// Status reports whether a worker is alive for root.
	Status(root string) WorkerStatus
}
