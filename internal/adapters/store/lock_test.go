package store_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/adapters/store"
	"go.trai.ch/prov/internal/core/domain"
)

func plantLock(t *testing.T, p domain.Project, pid int, createdAt time.Time, host string) string {
	t.Helper()
	lockDir := filepath.Join(p.StoreDir(), domain.LockDirName)
	require.NoError(t, os.MkdirAll(lockDir, 0o750))
	owner, err := json.Marshal(map[string]any{
		"pid":        pid,
		"created_at": createdAt,
		"hostname":   host,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(lockDir, domain.LockOwnerFile), owner, 0o600))
	return lockDir
}

func hostname(t *testing.T) string {
	t.Helper()
	host, err := os.Hostname()
	require.NoError(t, err)
	return host
}

func TestLock_HeldLockTimesOut(t *testing.T) {
	p := newProject(t)
	p.LockTimeout = 50 * time.Millisecond
	plantLock(t, p, os.Getpid(), time.Now().UTC(), hostname(t))

	err := store.New().Put(context.Background(), p, newRecord("id-1", "run", 0), false)
	require.ErrorIs(t, err, domain.ErrStoreLocked)
}

func TestLock_BreaksStaleLock(t *testing.T) {
	p := newProject(t)
	p.LockTimeout = time.Second
	plantLock(t, p, os.Getpid(), time.Now().Add(-time.Hour).UTC(), "elsewhere")

	s := store.New(store.WithStaleLockAfter(time.Minute))
	require.NoError(t, s.Put(context.Background(), p, newRecord("id-1", "run", 0), false))
}

func TestLock_BreaksLockOfDeadProcess(t *testing.T) {
	p := newProject(t)
	p.LockTimeout = time.Second
	// Pid values near the top of the range are not assigned in practice.
	plantLock(t, p, 1<<22-1, time.Now().UTC(), hostname(t))

	require.NoError(t, store.New().Put(context.Background(), p, newRecord("id-1", "run", 0), false))
}

func TestLock_ForeignHostIsRespected(t *testing.T) {
	p := newProject(t)
	p.LockTimeout = 50 * time.Millisecond
	plantLock(t, p, 1<<22-1, time.Now().UTC(), "elsewhere")

	err := store.New().Put(context.Background(), p, newRecord("id-1", "run", 0), false)
	require.ErrorIs(t, err, domain.ErrStoreLocked)
}

func TestLock_ContextCanceled(t *testing.T) {
	p := newProject(t)
	plantLock(t, p, os.Getpid(), time.Now().UTC(), hostname(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.New().Put(ctx, p, newRecord("id-1", "run", 0), false)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLock_ReadsDoNotWait(t *testing.T) {
	p := newProject(t)
	s := store.New()
	require.NoError(t, s.Put(context.Background(), p, newRecord("id-1", "run", 0), false))

	plantLock(t, p, os.Getpid(), time.Now().UTC(), hostname(t))

	rec, err := s.Get(context.Background(), p, "run")
	require.NoError(t, err)
	assert.Equal(t, "id-1", rec.ID)
}
