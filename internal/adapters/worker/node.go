package worker

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/prov/internal/core/ports"
)

// NodeID is the unique identifier for the worker spawner Graft node.
const NodeID graft.ID = "adapter.worker"

func init() {
	graft.Register(graft.Node[ports.WorkerSpawner]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.WorkerSpawner, error) {
			return NewSpawner()
		},
	})
}
