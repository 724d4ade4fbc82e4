package syncer

import (
	"context"
	"fmt"
	"time"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
)

// Mismatch is a remote record that disagrees with the local store.
type Mismatch struct {
	Label  string
	Reason string
}

// ReconcileReport summarizes a reconciliation.
type ReconcileReport struct {
	// Imported lists the labels of remote records copied into the store.
	Imported []string
	// Adopted lists the labels of local records the remote already held.
	Adopted   []string
	Conflicts []Mismatch
}

// Reconcile compares the remote listing with the local store. Missing remote
// records are imported as Synced. A record whose content differs from the
// remote version, or whose label the remote uses for another record, is
// marked Conflict. Nothing on either side is overwritten.
func (e *Engine) Reconcile(ctx context.Context, cfg *domain.ProjectConfig) (ReconcileReport, error) {
	ctx, span := e.tracer.Start(ctx, "sync.reconcile", ports.WithAttribute("project", cfg.Project))
	defer span.End()

	report, err := e.reconcile(ctx, cfg)
	if err != nil {
		span.RecordError(err)
	}
	span.SetAttribute("imported", len(report.Imported))
	span.SetAttribute("conflicts", len(report.Conflicts))
	return report, err
}

func (e *Engine) reconcile(ctx context.Context, cfg *domain.ProjectConfig) (ReconcileReport, error) {
	var report ReconcileReport
	s, err := e.open(cfg)
	if err != nil {
		return report, err
	}
	p := s.project

	listCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	summaries, err := s.client.ListRecords(listCtx, p.Name)
	cancel()
	if err != nil {
		return report, err
	}

	byID := make(map[string]*domain.Record)
	byLabel := make(map[string]*domain.Record)
	for rec, err := range e.store.List(ctx, p, domain.Filter{}) {
		if err != nil {
			return report, err
		}
		byID[rec.ID] = rec
		byLabel[rec.Label] = rec
	}

	for _, sum := range summaries {
		if rec, ok := byID[sum.ID]; ok {
			if err := e.compare(ctx, p, rec, sum, &report); err != nil {
				return report, err
			}
			continue
		}

		if holder, ok := byLabel[sum.Label]; ok {
			reason := fmt.Sprintf("remote record %s uses the label", sum.ID)
			if err := e.flag(ctx, p, holder, reason, &report); err != nil {
				return report, err
			}
			continue
		}

		if err := e.importRecord(ctx, s, sum); err != nil {
			return report, err
		}
		report.Imported = append(report.Imported, sum.Label)
	}
	return report, nil
}

// compare checks a local record against the remote version with the same id.
func (e *Engine) compare(ctx context.Context, p domain.Project, rec *domain.Record, sum domain.RemoteSummary, report *ReconcileReport) error {
	key, err := domain.IdempotencyKey(rec)
	if err != nil {
		return err
	}
	if key != sum.IdempotencyKey {
		return e.flag(ctx, p, rec, "remote holds a different version", report)
	}

	if rec.Sync.State != domain.SyncQueued && rec.Sync.State != domain.SyncFailed {
		return nil
	}
	_, err = e.store.UpdateSync(ctx, p, rec.ID, func(m *domain.SyncMeta) error {
		if m.State != domain.SyncQueued && m.State != domain.SyncFailed {
			return nil
		}
		m.State = domain.SyncSynced
		m.IdempotencyKey = key
		m.Retryable = false
		m.LastError = ""
		m.Rejection = nil
		m.NextAttemptAt = time.Time{}
		return nil
	})
	if err != nil {
		return err
	}
	if err := e.store.MarkDependenciesRemote(ctx, p, rec.DependencyDigests()); err != nil {
		return err
	}
	report.Adopted = append(report.Adopted, rec.Label)
	return nil
}

// flag marks rec as conflicting with the remote. Synced records are frozen and
// a record with a push in flight settles on its own, so both are only reported.
func (e *Engine) flag(ctx context.Context, p domain.Project, rec *domain.Record, reason string, report *ReconcileReport) error {
	report.Conflicts = append(report.Conflicts, Mismatch{Label: rec.Label, Reason: reason})
	if rec.Sync.State == domain.SyncSynced || rec.Sync.State == domain.SyncPushing {
		e.logger.Warn(fmt.Sprintf("%s differs from the remote: %s", rec.Label, reason))
		return nil
	}
	_, err := e.store.UpdateSync(ctx, p, rec.ID, func(m *domain.SyncMeta) error {
		if m.State == domain.SyncSynced || m.State == domain.SyncPushing {
			return nil
		}
		m.State = domain.SyncConflict
		m.Retryable = false
		m.NextAttemptAt = time.Time{}
		m.LastError = reason
		return nil
	})
	return err
}

// importRecord copies a remote record into the store as Synced.
func (e *Engine) importRecord(ctx context.Context, s *session, sum domain.RemoteSummary) error {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	rec, err := s.client.FetchRecord(fetchCtx, s.project.Name, sum.ID)
	cancel()
	if err != nil {
		return err
	}
	if rec.Project == "" {
		rec.Project = s.project.Name
	}
	rec.Sync = domain.SyncMeta{
		State:          domain.SyncSynced,
		IdempotencyKey: sum.IdempotencyKey,
	}
	if err := e.store.Put(ctx, s.project, rec, false); err != nil {
		return err
	}
	// Dependencies of an imported record already live on the remote.
	if err := e.store.MarkDependenciesRemote(ctx, s.project, rec.DependencyDigests()); err != nil {
		return err
	}
	e.logger.Info(fmt.Sprintf("imported %s from the remote", rec.Label))
	return nil
}
