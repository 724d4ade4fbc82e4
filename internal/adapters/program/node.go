package program

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/prov/internal/core/ports"
)

// NodeID is the unique identifier for the program detector Graft node.
const NodeID graft.ID = "adapter.program"

func init() {
	graft.Register(graft.Node[ports.ProgramDetector]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ProgramDetector, error) {
			return NewDetector(nil, nil), nil
		},
	})
}
