package app

import (
	"context"
	"fmt"
	"os"

	"go.trai.ch/prov/internal/adapters/tui" //nolint:depguard // Live status view
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/engine/syncer"
	"go.trai.ch/zerr"
)

// SyncOptions configures Sync.
type SyncOptions struct {
	// Label pushes a single record right away instead of draining the queue.
	Label string
	// Background hands the queue to a detached worker.
	Background bool
}

// remoteProject loads the project and checks that a remote is configured.
func (a *App) remoteProject() (*domain.ProjectConfig, error) {
	cfg, err := a.project()
	if err != nil {
		return nil, err
	}
	if !cfg.Remote.Configured() {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "no remote configured"), "project", cfg.Project)
	}
	return cfg, nil
}

// Sync queues every finished local record and pushes the queue.
func (a *App) Sync(ctx context.Context, opts SyncOptions) error {
	cfg, err := a.remoteProject()
	if err != nil {
		return err
	}
	p := cfg.ProjectRef()

	if opts.Label != "" {
		res, err := a.syncer.Push(ctx, cfg, opts.Label)
		if res.ID != "" {
			a.printResults([]syncer.Result{res})
		}
		return err
	}

	n, err := a.syncer.Enqueue(ctx, p)
	if err != nil {
		return err
	}
	a.logger.Debug(fmt.Sprintf("queued %d records", n))

	if opts.Background {
		return a.spawner.Spawn(ctx, p.Root, p.Name)
	}
	// The worker owns the queue while it runs.
	if status := a.spawner.Status(p.Root); status.Running {
		a.logger.Info(fmt.Sprintf("sync worker (pid %d) is pushing the queue", status.PID))
		return nil
	}

	report, err := a.syncer.Drain(ctx, cfg)
	a.printResults(report.Results)
	if err != nil {
		return err
	}
	if report.Blocked != "" {
		a.logger.Warn(fmt.Sprintf("sync stopped at %s, see 'prov status'", report.Blocked))
		return nil
	}
	if len(report.Results) == 0 {
		a.logger.Info("nothing to sync")
	}
	return nil
}

func (a *App) printResults(results []syncer.Result) {
	if len(results) == 0 {
		return
	}
	p := newPrinter(a.stdout)
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		detail := ""
		if res.Err != nil {
			detail = res.Err.Error()
		}
		rows = append(rows, []string{res.Label, p.state(res.State), fmt.Sprint(res.Attempts), detail})
	}
	p.table([]string{"LABEL", "SYNC", "ATTEMPTS", "ERROR"}, rows)
}

// Retry re-queues a record that failed or conflicted. With force the next
// push replaces the remote record holding the label.
func (a *App) Retry(ctx context.Context, labelOrID string, force bool) error {
	cfg, err := a.project()
	if err != nil {
		return err
	}
	rec, err := a.syncer.Retry(ctx, cfg.ProjectRef(), labelOrID, force)
	if err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("%s queued for sync", rec.Label))
	return nil
}

// Cancel takes a record, or with all every record, out of the sync queue.
func (a *App) Cancel(ctx context.Context, labelOrID string, all bool) error {
	cfg, err := a.project()
	if err != nil {
		return err
	}
	p := cfg.ProjectRef()
	if all {
		n, err := a.syncer.CancelAll(ctx, p)
		if err != nil {
			return err
		}
		a.logger.Info(fmt.Sprintf("canceled %d pending pushes", n))
		return nil
	}
	rec, err := a.syncer.Cancel(ctx, p, labelOrID)
	if err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("%s is local only", rec.Label))
	return nil
}

// Status prints the sync state of every record and of the worker.
func (a *App) Status(ctx context.Context) error {
	cfg, err := a.project()
	if err != nil {
		return err
	}
	p := cfg.ProjectRef()
	statuses, err := a.syncer.Status(ctx, p)
	if err != nil {
		return err
	}

	out := newPrinter(a.stdout)
	if worker := a.spawner.Status(p.Root); worker.Running {
		out.line("worker: running (pid %d, since %s)", worker.PID, formatTime(worker.StartedAt))
	} else {
		out.line("worker: stopped")
	}
	if len(statuses) == 0 {
		out.line("no records")
		return nil
	}

	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		detail := s.LastError
		if s.State == domain.SyncFailed && s.Retryable && !s.NextAttemptAt.IsZero() {
			detail = fmt.Sprintf("retry %d at %s: %s", s.RetryCount+1, formatTime(s.NextAttemptAt), s.LastError)
		}
		rows = append(rows, []string{s.Label, formatTime(s.CreatedAt), out.state(s.State), detail})
	}
	out.table([]string{"LABEL", "STARTED", "SYNC", "DETAIL"}, rows)
	return nil
}

// Watch shows a live view of the sync queue. Without a terminal it prints
// the status once.
func (a *App) Watch(ctx context.Context) error {
	if !tui.IsTerminal(a.stdout) {
		return a.Status(ctx)
	}
	cfg, err := a.project()
	if err != nil {
		return err
	}
	p := cfg.ProjectRef()
	load := func(ctx context.Context) (tui.Snapshot, error) {
		statuses, err := a.syncer.Status(ctx, p)
		if err != nil {
			return tui.Snapshot{}, err
		}
		return tui.Snapshot{Worker: a.spawner.Status(p.Root), Records: statuses}, nil
	}
	return tui.Run(ctx, os.Stdin, a.stdout, load, cfg.Sync.PollInterval)
}

// Reconcile compares the remote with the local store and prints the outcome.
func (a *App) Reconcile(ctx context.Context) error {
	cfg, err := a.remoteProject()
	if err != nil {
		return err
	}
	report, err := a.syncer.Reconcile(ctx, cfg)
	if err != nil {
		return err
	}

	out := newPrinter(a.stdout)
	out.section("Imported", report.Imported)
	out.section("Already on the remote", report.Adopted)
	out.section("Conflicts", mapSlice(report.Conflicts, func(m syncer.Mismatch) string {
		return m.Label + ": " + m.Reason
	}))
	if len(report.Imported)+len(report.Adopted)+len(report.Conflicts) == 0 {
		out.line("local store and remote agree")
	}
	return nil
}
