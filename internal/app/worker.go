package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/prov/internal/adapters/watcher" //nolint:depguard // Debouncer is shared with the watcher adapter
	"go.trai.ch/prov/internal/adapters/worker"  //nolint:depguard // Pid file and lifecycle of the worker process
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Worker drains the sync queue of the project until it has been idle for
// the configured timeout or ctx is done. Changes to the store index wake it
// up, and it polls for due retries.
func (a *App) Worker(ctx context.Context, project string) error {
	cfg, err := a.remoteProject()
	if err != nil {
		return err
	}
	p := cfg.ProjectRef()
	if project != "" && project != p.Name {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "worker started for another project"), "want", project), "have", p.Name)
	}

	release, err := worker.WritePID(p.Root, p.Name)
	if err != nil {
		return err
	}
	defer release()

	lifecycle := worker.NewLifecycle(cfg.Sync.IdleTimeout)
	defer lifecycle.Shutdown()

	if err := os.MkdirAll(p.StoreDir(), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", p.StoreDir())
	}
	if err := a.watcher.Start(ctx, p.StoreDir()); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	wake := make(chan struct{}, 1)
	notify := func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func([]string) { notify() })

	a.logger.Info(fmt.Sprintf("sync worker started for %s", p.Name))
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for event := range a.watcher.Events() {
			if filepath.Base(event.Path) == domain.IndexFileName {
				debouncer.Add(event.Path)
			}
		}
		return nil
	})
	g.Go(func() error {
		defer func() { _ = a.watcher.Stop() }()
		return a.serve(ctx, cfg, lifecycle, wake)
	})
	notify()
	return g.Wait()
}

// serve runs drains until the lifecycle shuts the worker down.
func (a *App) serve(ctx context.Context, cfg *domain.ProjectConfig, lifecycle *worker.Lifecycle, wake <-chan struct{}) error {
	ticker := time.NewTicker(cfg.Sync.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-lifecycle.ShutdownChan():
			a.logger.Info(fmt.Sprintf("sync worker idle, exiting after %s", lifecycle.Uptime().Round(time.Second)))
			return nil
		case <-ticker.C:
		case <-wake:
		}

		report, err := a.syncer.Drain(ctx, cfg)
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case errors.Is(err, domain.ErrAuth):
			return err
		case err != nil:
			a.logger.Error(err)
		}
		for _, res := range report.Results {
			a.logger.Info(fmt.Sprintf("%s: %s after %d attempts", res.Label, res.State, res.Attempts))
			// Rejected credentials fail every further push too.
			if errors.Is(res.Err, domain.ErrAuth) {
				return res.Err
			}
		}
		if len(report.Results) > 0 || report.Blocked != "" {
			lifecycle.ResetTimer()
			continue
		}
		a.logger.Debug(fmt.Sprintf("queue empty, exiting in %s", lifecycle.IdleRemaining().Round(time.Second)))
	}
}
