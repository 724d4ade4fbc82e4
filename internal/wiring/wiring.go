// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/prov/internal/adapters/config"
	_ "go.trai.ch/prov/internal/adapters/fs"
	_ "go.trai.ch/prov/internal/adapters/logger"
	_ "go.trai.ch/prov/internal/adapters/program"
	_ "go.trai.ch/prov/internal/adapters/remote"
	_ "go.trai.ch/prov/internal/adapters/shell"
	_ "go.trai.ch/prov/internal/adapters/store"
	_ "go.trai.ch/prov/internal/adapters/telemetry"
	_ "go.trai.ch/prov/internal/adapters/vcs"
	_ "go.trai.ch/prov/internal/adapters/watcher"
	_ "go.trai.ch/prov/internal/adapters/worker"
	// Register app and engine nodes.
	_ "go.trai.ch/prov/internal/app"
	_ "go.trai.ch/prov/internal/engine/capture"
	_ "go.trai.ch/prov/internal/engine/syncer"
)
