// Package syncer moves captured records from the local store to the remote
// record service.
package syncer

import (
	"context"
	"sync"
	"time"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
)

// Engine drives the synchronization state machine of records.
//
// Pushes of one project happen in creation order, one record at a time.
// Pending retries of this process can be canceled through Cancel.
type Engine struct {
	store   ports.RecordStore
	remotes ports.RemoteFactory
	tracer  ports.Tracer
	logger  ports.Logger
	now     func() time.Time

	mu      sync.Mutex
	pending map[string]context.CancelFunc
}

// New creates an Engine.
func New(store ports.RecordStore, remotes ports.RemoteFactory, tracer ports.Tracer, logger ports.Logger) *Engine {
	return &Engine{
		store:   store,
		remotes: remotes,
		tracer:  tracer,
		logger:  logger,
		now:     time.Now,
		pending: make(map[string]context.CancelFunc),
	}
}

// queue resets meta for a fresh round of push attempts.
func queue(m *domain.SyncMeta) {
	m.State = domain.SyncQueued
	m.Retryable = false
	m.RetryCount = 0
	m.LastError = ""
	m.Rejection = nil
	m.NextAttemptAt = time.Time{}
}

func pendingRetry(m domain.SyncMeta) bool {
	return m.State == domain.SyncFailed && m.Retryable
}

// Enqueue queues every finished LocalOnly record and every record waiting for
// a retry. It returns how many records were queued.
func (e *Engine) Enqueue(ctx context.Context, p domain.Project) (int, error) {
	filter := domain.Filter{States: []domain.SyncState{domain.SyncLocalOnly, domain.SyncFailed}}
	var ids []string
	for rec, err := range e.store.List(ctx, p, filter) {
		if err != nil {
			return 0, err
		}
		if rec.Phase == domain.PhaseRunning || rec.Sync.Terminal() {
			continue
		}
		ids = append(ids, rec.ID)
	}

	queued := 0
	for _, id := range ids {
		changed := false
		_, err := e.store.UpdateSync(ctx, p, id, func(m *domain.SyncMeta) error {
			if m.State != domain.SyncLocalOnly && !pendingRetry(*m) {
				return nil
			}
			queue(m)
			changed = true
			return nil
		})
		if err != nil {
			return queued, err
		}
		if changed {
			queued++
		}
	}
	return queued, nil
}

// Retry re-queues a record that failed terminally or conflicted with the
// remote. With force the next push replaces the remote record under the label.
func (e *Engine) Retry(ctx context.Context, p domain.Project, labelOrID string, force bool) (*domain.Record, error) {
	rec, err := e.store.Get(ctx, p, labelOrID)
	if err != nil {
		return nil, err
	}
	return e.store.UpdateSync(ctx, p, rec.ID, func(m *domain.SyncMeta) error {
		if m.State != domain.SyncFailed && m.State != domain.SyncConflict {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidState, "only failed or conflicting records can be retried"), "label", rec.Label), "state", string(m.State))
		}
		queue(m)
		m.Force = force
		return nil
	})
}

// Cancel takes a queued record or a pending retry out of the queue. The
// record returns to LocalOnly. A push already in flight is not interrupted.
func (e *Engine) Cancel(ctx context.Context, p domain.Project, labelOrID string) (*domain.Record, error) {
	rec, err := e.store.Get(ctx, p, labelOrID)
	if err != nil {
		return nil, err
	}
	updated, err := e.store.UpdateSync(ctx, p, rec.ID, func(m *domain.SyncMeta) error {
		if m.State != domain.SyncQueued && !pendingRetry(*m) {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidState, "record has no pending push"), "label", rec.Label), "state", string(m.State))
		}
		m.State = domain.SyncLocalOnly
		m.Retryable = false
		m.RetryCount = 0
		m.NextAttemptAt = time.Time{}
		m.Force = false
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.wake(rec.ID)
	return updated, nil
}

// CancelAll cancels every pending push of the project and returns how many
// records went back to LocalOnly.
func (e *Engine) CancelAll(ctx context.Context, p domain.Project) (int, error) {
	filter := domain.Filter{States: []domain.SyncState{domain.SyncQueued, domain.SyncFailed}}
	var ids []string
	for rec, err := range e.store.List(ctx, p, filter) {
		if err != nil {
			return 0, err
		}
		if rec.Sync.State == domain.SyncQueued || pendingRetry(rec.Sync) {
			ids = append(ids, rec.ID)
		}
	}

	canceled := 0
	for _, id := range ids {
		if _, err := e.Cancel(ctx, p, id); err != nil {
			return canceled, err
		}
		canceled++
	}
	return canceled, nil
}

// Status returns the sync progress of every record in creation order.
func (e *Engine) Status(ctx context.Context, p domain.Project) ([]domain.SyncStatus, error) {
	var statuses []domain.SyncStatus
	for rec, err := range e.store.List(ctx, p, domain.Filter{}) {
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, rec.Status())
	}
	return statuses, nil
}

// track registers the cancel func of a push waiting on id.
func (e *Engine) track(id string, cancel context.CancelFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[id] = cancel
}

func (e *Engine) untrack(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, id)
}

func (e *Engine) tracked(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[id]
	return ok
}

// wake interrupts the backoff wait of id, if this process has one.
func (e *Engine) wake(id string) {
	e.mu.Lock()
	cancel, ok := e.pending[id]
	e.mu.Unlock()
	if ok {
		cancel()
	}
}
