package syncer_test

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/adapters/remote"
	"go.trai.ch/prov/internal/adapters/remote/remotetest"
	"go.trai.ch/prov/internal/adapters/store"
	"go.trai.ch/prov/internal/adapters/telemetry"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/prov/internal/core/ports/mocks"
	"go.trai.ch/prov/internal/engine/syncer"
	"go.uber.org/mock/gomock"
)

var start = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func newRecord(id, label string, offset int, deps ...domain.Dependency) *domain.Record {
	return &domain.Record{
		ID:           id,
		Label:        label,
		Project:      "neuro",
		Executable:   domain.Executable{Name: "Python", Version: "3.12.1"},
		MainRef:      "model.py",
		StartedAt:    start.Add(time.Duration(offset) * time.Minute),
		Duration:     2 * time.Second,
		Phase:        domain.PhaseFinished,
		VCS:          domain.VCSState{Kind: domain.VCSNone},
		Dependencies: deps,
	}
}

func dep(path, content string) domain.Dependency {
	sum := sha256.Sum256([]byte(content))
	return domain.Dependency{
		Path:    path,
		Digest:  domain.FormatDigest(sum[:]),
		Size:    int64(len(content)),
		ModTime: start,
	}
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()
	return log
}

type env struct {
	engine  *syncer.Engine
	store   *store.Store
	project domain.Project
	cfg     *domain.ProjectConfig
}

func newEnv(t *testing.T, remotes ports.RemoteFactory, rc domain.RemoteConfig) *env {
	t.Helper()
	cfg := domain.DefaultProjectConfig("neuro", t.TempDir())
	cfg.Remote = rc
	cfg.Sync.MaxAttempts = 3
	cfg.Sync.InitialInterval = time.Millisecond
	cfg.Sync.MaxInterval = 5 * time.Millisecond
	cfg.Sync.RandomizationFactor = 0
	cfg.Sync.AttemptTimeout = 5 * time.Second

	s := store.New()
	return &env{
		engine:  syncer.New(s, remotes, telemetry.NewNoOpTracer(), quietLogger(t)),
		store:   s,
		project: cfg.ProjectRef(),
		cfg:     cfg,
	}
}

// newServerEnv returns an environment pushing to an in-memory remote.
func newServerEnv(t *testing.T) (*env, *remotetest.Server) {
	t.Helper()
	srv := remotetest.NewServer(t)
	return newEnv(t, remote.NewFactory(), srv.Config()), srv
}

// put stores rec and walks it through states.
func (e *env) put(t *testing.T, rec *domain.Record, states ...domain.SyncState) {
	t.Helper()
	require.NoError(t, e.store.Put(context.Background(), e.project, rec, false))
	for _, state := range states {
		e.update(t, rec.ID, func(m *domain.SyncMeta) { m.State = state })
	}
}

func (e *env) update(t *testing.T, id string, fn func(*domain.SyncMeta)) {
	t.Helper()
	_, err := e.store.UpdateSync(context.Background(), e.project, id, func(m *domain.SyncMeta) error {
		fn(m)
		return nil
	})
	require.NoError(t, err)
}

func (e *env) sync(t *testing.T, labelOrID string) domain.SyncMeta {
	t.Helper()
	rec, err := e.store.Get(context.Background(), e.project, labelOrID)
	require.NoError(t, err)
	return rec.Sync
}

func TestEnqueue(t *testing.T) {
	e, _ := newServerEnv(t)

	e.put(t, newRecord("id-1", "finished", 0))
	running := newRecord("id-2", "running", 1)
	running.Phase = domain.PhaseRunning
	e.put(t, running)
	e.put(t, newRecord("id-3", "retry", 2), domain.SyncQueued, domain.SyncPushing)
	e.update(t, "id-3", func(m *domain.SyncMeta) {
		m.State = domain.SyncFailed
		m.Retryable = true
		m.RetryCount = 2
	})
	e.put(t, newRecord("id-4", "terminal", 3), domain.SyncQueued, domain.SyncPushing, domain.SyncFailed)
	e.put(t, newRecord("id-5", "conflict", 4), domain.SyncQueued, domain.SyncPushing, domain.SyncConflict)

	n, err := e.engine.Enqueue(context.Background(), e.project)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, domain.SyncQueued, e.sync(t, "finished").State)
	assert.Equal(t, domain.SyncLocalOnly, e.sync(t, "running").State)
	retried := e.sync(t, "retry")
	assert.Equal(t, domain.SyncQueued, retried.State)
	assert.Zero(t, retried.RetryCount)
	assert.Equal(t, domain.SyncFailed, e.sync(t, "terminal").State)
	assert.Equal(t, domain.SyncConflict, e.sync(t, "conflict").State)
}

func TestRetry(t *testing.T) {
	e, _ := newServerEnv(t)
	e.put(t, newRecord("id-1", "conflict", 0), domain.SyncQueued, domain.SyncPushing, domain.SyncConflict)
	e.put(t, newRecord("id-2", "queued", 1), domain.SyncQueued)

	rec, err := e.engine.Retry(context.Background(), e.project, "conflict", true)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncQueued, rec.Sync.State)
	assert.True(t, rec.Sync.Force)

	_, err = e.engine.Retry(context.Background(), e.project, "queued", false)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = e.engine.Retry(context.Background(), e.project, "missing", false)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancel(t *testing.T) {
	e, _ := newServerEnv(t)
	e.put(t, newRecord("id-1", "queued", 0), domain.SyncQueued)
	e.put(t, newRecord("id-2", "pushing", 1), domain.SyncQueued, domain.SyncPushing)
	e.put(t, newRecord("id-3", "local", 2))

	rec, err := e.engine.Cancel(context.Background(), e.project, "queued")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncLocalOnly, rec.Sync.State)

	_, err = e.engine.Cancel(context.Background(), e.project, "pushing")
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Equal(t, domain.SyncPushing, e.sync(t, "pushing").State)

	_, err = e.engine.Cancel(context.Background(), e.project, "local")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCancelAll(t *testing.T) {
	e, _ := newServerEnv(t)
	e.put(t, newRecord("id-1", "a", 0), domain.SyncQueued)
	e.put(t, newRecord("id-2", "b", 1), domain.SyncQueued, domain.SyncPushing)
	e.update(t, "id-2", func(m *domain.SyncMeta) {
		m.State = domain.SyncFailed
		m.Retryable = true
	})
	e.put(t, newRecord("id-3", "c", 2), domain.SyncQueued, domain.SyncPushing, domain.SyncFailed)

	n, err := e.engine.CancelAll(context.Background(), e.project)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, domain.SyncLocalOnly, e.sync(t, "a").State)
	assert.Equal(t, domain.SyncLocalOnly, e.sync(t, "b").State)
	assert.Equal(t, domain.SyncFailed, e.sync(t, "c").State)
}

func TestStatus(t *testing.T) {
	e, _ := newServerEnv(t)
	e.put(t, newRecord("id-1", "a", 0))
	e.put(t, newRecord("id-2", "b", 1), domain.SyncQueued, domain.SyncPushing)
	e.update(t, "id-2", func(m *domain.SyncMeta) {
		m.State = domain.SyncFailed
		m.Retryable = true
		m.RetryCount = 1
		m.LastError = "network failure"
	})

	statuses, err := e.engine.Status(context.Background(), e.project)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "a", statuses[0].Label)
	assert.Equal(t, domain.SyncLocalOnly, statuses[0].State)
	assert.Equal(t, domain.SyncFailed, statuses[1].State)
	assert.True(t, statuses[1].Retryable)
	assert.Equal(t, 1, statuses[1].RetryCount)
	assert.Equal(t, "network failure", statuses[1].LastError)
}
