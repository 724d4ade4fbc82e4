package syncer

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/prov/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/prov/internal/adapters/remote"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/prov/internal/adapters/store"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/prov/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/prov/internal/core/ports"
)

// NodeID is the unique identifier for the sync engine Graft node.
const NodeID graft.ID = "engine.syncer"

func init() {
	graft.Register(graft.Node[*Engine]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			store.NodeID,
			remote.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Engine, error) {
			recordStore, err := graft.Dep[ports.RecordStore](ctx)
			if err != nil {
				return nil, err
			}

			remotes, err := graft.Dep[ports.RemoteFactory](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(recordStore, remotes, tracer, log), nil
		},
	})
}
