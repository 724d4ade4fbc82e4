package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/adapters/watcher"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/prov/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func startWatcher(t *testing.T, root string) *watcher.Watcher {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	w, err := watcher.NewWatcher(log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	require.NoError(t, w.Start(ctx, root))
	return w
}

// waitFor collects events until one for path arrives.
func waitFor(t *testing.T, w *watcher.Watcher, path string) ports.WatchEvent {
	t.Helper()
	found := make(chan ports.WatchEvent, 1)
	go func() {
		for ev := range w.Events() {
			if ev.Path == path {
				found <- ev
				return
			}
		}
	}()
	select {
	case ev := <-found:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatalf("no event for %s", path)
		return ports.WatchEvent{}
	}
}

func TestWatcher_ReportsIndexWrites(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	index := filepath.Join(root, "index.json")
	require.NoError(t, os.WriteFile(index, []byte("{}"), 0o600))

	ev := waitFor(t, w, index)
	assert.Contains(t, []ports.WatchOp{ports.OpCreate, ports.OpWrite}, ev.Operation)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	records := filepath.Join(root, "records")
	require.NoError(t, os.Mkdir(records, 0o750))
	waitFor(t, w, records)

	// The watch on the new directory is added after its create event is delivered.
	file := filepath.Join(records, "r1.json")
	deadline := time.Now().Add(5 * time.Second)
	found := make(chan struct{})
	go func() {
		for ev := range w.Events() {
			if ev.Path == file {
				close(found)
				return
			}
		}
	}()
	for {
		require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))
		select {
		case <-found:
			return
		case <-time.After(50 * time.Millisecond):
		}
		if time.Now().After(deadline) {
			t.Fatal("no event from new directory")
		}
	}
}

func TestWatcher_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store", "neuro")
	startWatcher(t, root)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
