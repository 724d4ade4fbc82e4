package vcs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/prov/internal/core/ports"
)

// NodeID is the unique identifier for the version control detector Graft node.
const NodeID graft.ID = "adapter.vcs"

func init() {
	graft.Register(graft.Node[ports.VCSDetector]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.VCSDetector, error) {
			return NewDetector(nil), nil
		},
	})
}
