package capture

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/prov/internal/adapters/fs"      //nolint:depguard // Wired in engine wiring
	"go.trai.ch/prov/internal/adapters/logger"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/prov/internal/adapters/program" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/prov/internal/adapters/store"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/prov/internal/adapters/vcs"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/prov/internal/core/ports"
)

// NodeID is the unique identifier for the capture engine Graft node.
const NodeID graft.ID = "engine.capture"

func init() {
	graft.Register(graft.Node[*Capture]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			store.NodeID,
			fs.ResolverNodeID,
			vcs.NodeID,
			program.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Capture, error) {
			recordStore, err := graft.Dep[ports.RecordStore](ctx)
			if err != nil {
				return nil, err
			}

			resolver, err := graft.Dep[ports.DependencyResolver](ctx)
			if err != nil {
				return nil, err
			}

			detector, err := graft.Dep[ports.VCSDetector](ctx)
			if err != nil {
				return nil, err
			}

			programs, err := graft.Dep[ports.ProgramDetector](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(recordStore, resolver, detector, programs, log), nil
		},
	})
}
