package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/prov/internal/adapters/config"  //nolint:depguard // Wired in app layer
	"go.trai.ch/prov/internal/adapters/logger"  //nolint:depguard // Wired in app layer
	"go.trai.ch/prov/internal/adapters/shell"   //nolint:depguard // Wired in app layer
	"go.trai.ch/prov/internal/adapters/store"   //nolint:depguard // Wired in app layer
	"go.trai.ch/prov/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/prov/internal/adapters/worker"  //nolint:depguard // Wired in app layer
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/prov/internal/engine/capture"
	"go.trai.ch/prov/internal/engine/syncer"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components holds what the command line needs from the graph.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			store.NodeID,
			capture.NodeID,
			syncer.NodeID,
			shell.NodeID,
			worker.NodeID,
			watcher.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	recordStore, err := graft.Dep[ports.RecordStore](ctx)
	if err != nil {
		return nil, err
	}

	capt, err := graft.Dep[*capture.Capture](ctx)
	if err != nil {
		return nil, err
	}

	engine, err := graft.Dep[*syncer.Engine](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	spawner, err := graft.Dep[ports.WorkerSpawner](ctx)
	if err != nil {
		return nil, err
	}

	watch, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, recordStore, capt, engine, executor, spawner, watch, log), nil
}
