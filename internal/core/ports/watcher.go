package ports

import (
	"context"
	"iter"
)

// WatchOp is the kind of change seen below a watched store.
type WatchOp uint8

const (
	// OpCreate is a new file, such as a freshly captured record.
	OpCreate WatchOp = iota
	// OpWrite is a rewrite in place.
	OpWrite
	// OpRemove is a deleted record or blob.
	OpRemove
	// OpRename is an atomic replace, the usual way the index is updated.
	OpRename
)

// WatchEvent is one change below the watched store.
type WatchEvent struct {
	Path      string
	Operation WatchOp
}

// Watcher reports changes to a project store. The sync worker uses it to
// drain right after a capture instead of waiting for its next poll.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches the store directory and everything created below it.
	Start(ctx context.Context, storeDir string) error
	// Stop releases the watcher. Events ends afterwards.
	Stop() error
	// Events yields changes until the watcher stops.
	Events() iter.Seq[WatchEvent]
}
