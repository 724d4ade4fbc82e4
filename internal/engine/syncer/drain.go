package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
)

// Result is the outcome of pushing one record.
type Result struct {
	ID       string
	Label    string
	State    domain.SyncState
	Attempts int
	// Created is false when the remote already held the record.
	Created bool
	Err     error
}

// Report summarizes a drain.
type Report struct {
	Results []Result
	// Blocked is the label of the record that stopped the drain, if any.
	// Records queued after it were left untouched.
	Blocked string
}

// Count returns how many pushed records ended in state.
func (r Report) Count(state domain.SyncState) int {
	n := 0
	for _, res := range r.Results {
		if res.State == state {
			n++
		}
	}
	return n
}

// session is the remote side of one drain.
type session struct {
	project  domain.Project
	info     domain.ProjectInfo
	cfg      domain.SyncConfig
	client   ports.RemoteClient
	prepared bool
}

func (e *Engine) open(cfg *domain.ProjectConfig) (*session, error) {
	client, err := e.remotes.New(cfg.Remote)
	if err != nil {
		return nil, err
	}
	sc := cfg.Sync
	if sc.MaxAttempts < 1 {
		sc.MaxAttempts = 1
	}
	if sc.AttemptTimeout <= 0 {
		sc.AttemptTimeout = domain.DefaultAttemptTimeout
	}
	return &session{project: cfg.ProjectRef(), info: cfg.Info(), cfg: sc, client: client}, nil
}

func (s *session) backoff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     s.cfg.InitialInterval,
		RandomizationFactor: s.cfg.RandomizationFactor,
		Multiplier:          s.cfg.Multiplier,
		MaxInterval:         s.cfg.MaxInterval,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return b
}

// Drain pushes every queued record of the project in creation order.
//
// Records left Pushing by a crashed process are queued again first. A record
// waiting for its next retry, an authentication failure or an exhausted
// network retry stop the drain; conflicts and rejected payloads do not.
func (e *Engine) Drain(ctx context.Context, cfg *domain.ProjectConfig) (Report, error) {
	ctx, span := e.tracer.Start(ctx, "sync.drain", ports.WithAttribute("project", cfg.Project))
	defer span.End()

	report, err := e.drain(ctx, cfg)
	span.SetAttribute("pushed", len(report.Results))
	if err != nil {
		span.RecordError(err)
	}
	return report, err
}

func (e *Engine) drain(ctx context.Context, cfg *domain.ProjectConfig) (Report, error) {
	var report Report
	s, err := e.open(cfg)
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			report = e.refuseQueue(ctx, cfg, err)
		}
		return report, err
	}
	if err := e.recoverInFlight(ctx, s.project); err != nil {
		return report, err
	}

	done := make(map[string]bool)
	for {
		batch, err := e.candidates(ctx, s.project, done)
		if err != nil {
			return report, err
		}
		if len(batch) == 0 {
			return report, nil
		}

		for _, rec := range batch {
			done[rec.ID] = true
			if pendingRetry(rec.Sync) && rec.Sync.NextAttemptAt.After(e.now()) {
				report.Blocked = rec.Label
				return report, nil
			}

			res := e.push(ctx, s, rec)
			report.Results = append(report.Results, res)

			switch {
			case res.Err == nil,
				errors.Is(res.Err, domain.ErrConflict),
				errors.Is(res.Err, domain.ErrValidation),
				errors.Is(res.Err, domain.ErrSyncCanceled):
				continue
			case errors.Is(res.Err, domain.ErrAuth), domain.Retryable(res.Err):
				report.Blocked = rec.Label
				return report, nil
			case ctx.Err() != nil:
				return report, ctx.Err()
			default:
				return report, res.Err
			}
		}
	}
}

// refuseQueue fails the head of the queue with cause when no request can be
// made at all, the way a rejected credential would.
func (e *Engine) refuseQueue(ctx context.Context, cfg *domain.ProjectConfig, cause error) Report {
	var report Report
	batch, err := e.candidates(ctx, cfg.ProjectRef(), nil)
	if err != nil {
		e.logger.Error(err)
		return report
	}
	if len(batch) == 0 {
		return report
	}
	report.Results = []Result{e.refuse(ctx, cfg, batch[0], cause)}
	report.Blocked = batch[0].Label
	return report
}

// refuse records cause as a terminal failure of rec without contacting the remote.
func (e *Engine) refuse(ctx context.Context, cfg *domain.ProjectConfig, rec *domain.Record, cause error) Result {
	s := &session{project: cfg.ProjectRef(), cfg: cfg.Sync}
	res := Result{ID: rec.ID, Label: rec.Label, State: rec.Sync.State, Attempts: 1, Err: cause}

	key, err := domain.IdempotencyKey(rec)
	if err == nil {
		rec, err = e.claim(ctx, s.project, rec, key)
	}
	if err == nil {
		err = e.settle(ctx, s, rec, rec.Sync.RetryCount+1, cause)
	}
	if err != nil {
		e.logger.Error(err)
		return res
	}
	res.State = domain.SyncFailed
	return res
}

// candidates lists the records waiting for a push that were not handled yet.
func (e *Engine) candidates(ctx context.Context, p domain.Project, done map[string]bool) ([]*domain.Record, error) {
	filter := domain.Filter{States: []domain.SyncState{domain.SyncQueued, domain.SyncFailed}}
	var batch []*domain.Record
	for rec, err := range e.store.List(ctx, p, filter) {
		if err != nil {
			return nil, err
		}
		if done[rec.ID] || (rec.Sync.State == domain.SyncFailed && !rec.Sync.Retryable) {
			continue
		}
		batch = append(batch, rec)
	}
	return batch, nil
}

// recoverInFlight queues records whose push was interrupted by a crash.
func (e *Engine) recoverInFlight(ctx context.Context, p domain.Project) error {
	filter := domain.Filter{States: []domain.SyncState{domain.SyncPushing}}
	var ids []string
	for rec, err := range e.store.List(ctx, p, filter) {
		if err != nil {
			return err
		}
		if !e.tracked(rec.ID) {
			ids = append(ids, rec.ID)
		}
	}
	for _, id := range ids {
		_, err := e.store.UpdateSync(ctx, p, id, func(m *domain.SyncMeta) error {
			if m.State == domain.SyncPushing {
				m.State = domain.SyncQueued
			}
			return nil
		})
		if err != nil {
			return err
		}
		e.logger.Debug(fmt.Sprintf("re-queued interrupted push of %s", id))
	}
	return nil
}

// Push sends one record right away, outside the queue order. A finished
// LocalOnly record is queued first.
func (e *Engine) Push(ctx context.Context, cfg *domain.ProjectConfig, labelOrID string) (Result, error) {
	p := cfg.ProjectRef()
	rec, err := e.store.Get(ctx, p, labelOrID)
	if err != nil {
		return Result{}, err
	}

	switch {
	case rec.Sync.State == domain.SyncSynced:
		return Result{ID: rec.ID, Label: rec.Label, State: domain.SyncSynced}, nil
	case rec.Phase == domain.PhaseRunning:
		return Result{}, zerr.With(zerr.Wrap(domain.ErrInvalidState, "record is still running"), "label", rec.Label)
	case rec.Sync.Terminal():
		return Result{}, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidState, "record needs an explicit retry"), "label", rec.Label), "state", string(rec.Sync.State))
	case rec.Sync.State == domain.SyncPushing:
		return Result{}, zerr.With(zerr.Wrap(domain.ErrInvalidState, "push already in flight"), "label", rec.Label)
	}

	if rec.Sync.State != domain.SyncQueued {
		rec, err = e.store.UpdateSync(ctx, p, rec.ID, func(m *domain.SyncMeta) error {
			queue(m)
			return nil
		})
		if err != nil {
			return Result{}, err
		}
	}

	ctx, span := e.tracer.Start(ctx, "sync.push_one", ports.WithAttribute("project", p.Name))
	defer span.End()

	s, err := e.open(cfg)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrAuth) {
			return e.refuse(ctx, cfg, rec, err), err
		}
		return Result{}, err
	}
	res := e.push(ctx, s, rec)
	return res, res.Err
}

// push runs the attempts of one record under backoff.
func (e *Engine) push(ctx context.Context, s *session, rec *domain.Record) Result {
	ctx, span := e.tracer.Start(ctx, "sync.push", ports.WithAttribute("label", rec.Label))
	defer span.End()

	waitCtx, cancel := context.WithCancel(ctx)
	e.track(rec.ID, cancel)
	defer func() {
		e.untrack(rec.ID)
		cancel()
	}()

	res := Result{ID: rec.ID, Label: rec.Label}
	attempt := rec.Sync.RetryCount
	remaining := max(s.cfg.MaxAttempts-attempt, 1)
	b := backoff.WithContext(backoff.WithMaxRetries(s.backoff(), uint64(remaining-1)), waitCtx)

	err := backoff.RetryNotify(func() error {
		attempt++
		res.Attempts++
		created, err := e.attempt(waitCtx, s, rec.ID, attempt)
		res.Created = created
		if err != nil && !domain.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		e.logger.Warn(fmt.Sprintf("push of %s failed, retrying in %s: %v", rec.Label, wait.Round(time.Millisecond), err))
		_, _ = e.store.UpdateSync(context.WithoutCancel(ctx), s.project, rec.ID, func(m *domain.SyncMeta) error {
			if pendingRetry(*m) {
				m.NextAttemptAt = e.now().Add(wait)
			}
			return nil
		})
	})

	if err != nil && waitCtx.Err() != nil && ctx.Err() == nil {
		err = zerr.With(zerr.Wrap(domain.ErrSyncCanceled, "push canceled while waiting for retry"), "label", rec.Label)
	}
	res.Err = err
	if err != nil {
		span.RecordError(err)
	}
	span.SetAttribute("attempts", res.Attempts)

	if final, gerr := e.store.Get(context.WithoutCancel(ctx), s.project, rec.ID); gerr == nil {
		res.State = final.Sync.State
	}
	return res
}

// attempt claims the record, submits it once and settles its sync state.
// The request itself is detached from ctx so that an in-flight push finishes.
func (e *Engine) attempt(ctx context.Context, s *session, id string, n int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	rec, err := e.store.Get(ctx, s.project, id)
	if err != nil {
		return false, err
	}
	doc, err := domain.CanonicalDocument(rec)
	if err != nil {
		return false, err
	}
	key, err := domain.IdempotencyKey(rec)
	if err != nil {
		return false, err
	}
	deps, err := e.store.PendingDependencies(ctx, s.project, rec.DependencyDigests())
	if err != nil {
		return false, err
	}

	rec, err = e.claim(ctx, s.project, rec, key)
	if err != nil {
		return false, err
	}

	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.AttemptTimeout)
	defer cancel()

	var result domain.PushResult
	if !s.prepared {
		err = s.client.EnsureProject(attemptCtx, s.info)
		s.prepared = err == nil
	}
	if err == nil {
		result, err = s.client.Push(attemptCtx, s.project.Name, domain.PushRequest{
			Label:          rec.Label,
			IdempotencyKey: key,
			Document:       doc,
			Dependencies:   deps,
			Force:          rec.Sync.Force,
		})
	}
	if errors.Is(err, domain.ErrConflict) {
		err = e.describeConflict(attemptCtx, s, rec.Label, err)
	}

	if serr := e.settle(context.WithoutCancel(ctx), s, rec, n, err); serr != nil {
		if err == nil {
			return result.Created, serr
		}
		e.logger.Error(serr)
	}
	if err == nil {
		e.logger.Debug(fmt.Sprintf("pushed %s (attempt %d)", rec.Label, n))
	}
	return result.Created, err
}

// describeConflict names the remote record that holds label. The conflict
// stands as is when the remote cannot tell.
func (e *Engine) describeConflict(ctx context.Context, s *session, label string, conflict error) error {
	theirs, err := s.client.FetchRecordByLabel(ctx, s.project.Name, label)
	if err != nil {
		e.logger.Debug(fmt.Sprintf("could not fetch remote %s: %v", label, err))
		return conflict
	}
	return zerr.With(zerr.Wrap(conflict, "label holds remote record "+theirs.ID), "remote_id", theirs.ID)
}

// claim moves a queued or retry-pending record to Pushing.
func (e *Engine) claim(ctx context.Context, p domain.Project, rec *domain.Record, key string) (*domain.Record, error) {
	// A pending retry passes through Queued on its way back to Pushing.
	if pendingRetry(rec.Sync) {
		_, err := e.store.UpdateSync(ctx, p, rec.ID, func(m *domain.SyncMeta) error {
			if pendingRetry(*m) {
				m.State = domain.SyncQueued
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return e.store.UpdateSync(ctx, p, rec.ID, func(m *domain.SyncMeta) error {
		if m.State != domain.SyncQueued {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrSyncCanceled, "record left the queue"), "label", rec.Label), "state", string(m.State))
		}
		m.State = domain.SyncPushing
		m.IdempotencyKey = key
		m.LastAttemptAt = e.now().UTC()
		m.NextAttemptAt = time.Time{}
		return nil
	})
}

// settle records the outcome of attempt n.
func (e *Engine) settle(ctx context.Context, s *session, rec *domain.Record, n int, pushErr error) error {
	_, err := e.store.UpdateSync(ctx, s.project, rec.ID, func(m *domain.SyncMeta) error {
		m.NextAttemptAt = time.Time{}
		switch {
		case pushErr == nil:
			m.State = domain.SyncSynced
			m.Retryable = false
			m.LastError = ""
			m.Rejection = nil
			m.Force = false
		case errors.Is(pushErr, domain.ErrConflict):
			m.State = domain.SyncConflict
			m.Retryable = false
			m.LastError = pushErr.Error()
			m.Rejection = nil
		default:
			m.State = domain.SyncFailed
			m.Retryable = domain.Retryable(pushErr) && n < s.cfg.MaxAttempts
			m.RetryCount = n
			m.LastError = pushErr.Error()
			m.Rejection = domain.RejectionOf(pushErr)
		}
		return nil
	})
	if err != nil || pushErr != nil {
		return err
	}
	return e.store.MarkDependenciesRemote(ctx, s.project, rec.DependencyDigests())
}
