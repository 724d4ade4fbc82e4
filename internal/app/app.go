// Package app implements the application layer for prov.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/prov/internal/adapters/logger" //nolint:depguard // Debug log sink is attached per project
	"go.trai.ch/prov/internal/adapters/shell"  //nolint:depguard // Output tail kept with each record
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/prov/internal/engine/capture"
	"go.trai.ch/prov/internal/engine/syncer"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	loader   ports.ConfigLoader
	store    ports.RecordStore
	capture  *capture.Capture
	syncer   *syncer.Engine
	executor ports.Executor
	spawner  ports.WorkerSpawner
	watcher  ports.Watcher
	logger   ports.Logger

	stdout io.Writer
	stderr io.Writer
	getwd  func() (string, error)
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	store ports.RecordStore,
	capt *capture.Capture,
	engine *syncer.Engine,
	executor ports.Executor,
	spawner ports.WorkerSpawner,
	watcher ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		loader:   loader,
		store:    store,
		capture:  capt,
		syncer:   engine,
		executor: executor,
		spawner:  spawner,
		watcher:  watcher,
		logger:   log,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		getwd:    os.Getwd,
	}
}

// WithOutput redirects the output of the monitored command and of reports.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithWorkingDir makes the App resolve the project from dir instead of the
// process working directory.
func (a *App) WithWorkingDir(dir string) *App {
	a.getwd = func() (string, error) { return dir, nil }
	return a
}

// ConfigureLogging adjusts the verbosity and format of the logger.
func (a *App) ConfigureLogging(verbose, jsonOutput bool) {
	if l, ok := a.logger.(*logger.Logger); ok {
		l.SetVerbose(verbose)
		l.SetJSON(jsonOutput)
	}
}

// project loads the configuration of the project enclosing the working directory.
func (a *App) project() (*domain.ProjectConfig, error) {
	wd, err := a.getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to determine working directory")
	}
	root, err := a.loader.DiscoverRoot(wd)
	if err != nil {
		return nil, err
	}
	cfg, err := a.loader.Load(root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	a.attachDebugLog(root)
	return cfg, nil
}

// attachDebugLog mirrors the log into .prov/debug.log. Failures are ignored.
func (a *App) attachDebugLog(root string) {
	l, ok := a.logger.(*logger.Logger)
	if !ok {
		return
	}
	f, err := logger.OpenDebugLog(root)
	if err != nil {
		return
	}
	l.AttachSink(f)
}

// InitOptions configures a new project.
type InitOptions struct {
	// Project defaults to the name of the working directory.
	Project   string
	RemoteURL string
	Mode      domain.SyncMode
}

// Init creates a project in the working directory.
func (a *App) Init(_ context.Context, opts InitOptions) error {
	root, err := a.getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to determine working directory")
	}
	name := opts.Project
	if name == "" {
		name = filepath.Base(root)
	}

	cfg := domain.DefaultProjectConfig(name, root)
	cfg.Remote.URL = opts.RemoteURL
	if opts.Mode != "" {
		cfg.Sync.Mode = opts.Mode
	}
	if err := a.loader.Init(cfg); err != nil {
		return err
	}
	a.logger.Info(fmt.Sprintf("initialized project %s in %s", name, root))
	return nil
}

// RunOptions configures a monitored run.
type RunOptions struct {
	// Executable is the program to run. It is inferred from Script when empty.
	Executable string
	Script     string
	ScriptArgs []string
	// ParameterFile is read first, Parameters are applied on top of it.
	ParameterFile string
	Parameters    []string
	Dependencies  []string
	Outputs       []string
	Label         string
	Overwrite     bool
	Tags          []string
	Reason        string
	Outcome       string
	Snapshot      bool
}

// Run captures a record around one execution of the monitored command.
// A non-zero exit status is reported as domain.ErrRunFailed after the record
// was stored.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	if opts.Executable == "" && opts.Script == "" {
		return domain.ErrMissingCommand
	}
	cfg, err := a.project()
	if err != nil {
		return err
	}
	p := cfg.ProjectRef()

	wd, err := a.getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to determine working directory")
	}
	params, err := a.parameters(wd, opts)
	if err != nil {
		return err
	}
	script, err := relativeTo(p.Root, wd, opts.Script)
	if err != nil {
		return err
	}
	deps, err := relativeAll(p.Root, wd, opts.Dependencies)
	if err != nil {
		return err
	}
	outputs, err := relativeAll(p.Root, wd, opts.Outputs)
	if err != nil {
		return err
	}

	h, err := a.capture.BeginRecord(ctx, p, capture.BeginOptions{
		Label:          opts.Label,
		Overwrite:      opts.Overwrite,
		Executable:     domain.Executable{Name: opts.Executable},
		MainRef:        script,
		Parameters:     params,
		DependencyRefs: deps,
		Tags:           opts.Tags,
		Reason:         opts.Reason,
		ScriptArgs:     opts.ScriptArgs,
		Snapshot:       opts.Snapshot || cfg.Store.Snapshot,
	})
	if err != nil {
		return err
	}

	cmd := domain.Command{Name: h.Executable.Path, Dir: wd}
	if cmd.Name == "" {
		cmd.Name = opts.Executable
	}
	if opts.Script != "" {
		cmd.Args = append(cmd.Args, opts.Script)
	}
	cmd.Args = append(cmd.Args, opts.ScriptArgs...)

	tail := shell.NewTail(shell.DefaultTailSize)
	began := time.Now()
	status, runErr := a.executor.Execute(ctx, cmd, io.MultiWriter(a.stdout, tail), io.MultiWriter(a.stderr, tail))
	outcome := opts.Outcome
	if runErr != nil {
		status = -1
		if outcome == "" {
			outcome = runErr.Error()
		}
	}

	rec, err := a.capture.EndRecord(context.WithoutCancel(ctx), h, capture.EndOptions{
		Outputs:    outputs,
		ExitStatus: status,
		Duration:   time.Since(began),
		Outcome:    outcome,
		Output:     tail.String(),
	})
	if err != nil {
		return errors.Join(err, runErr)
	}
	a.logger.Info(fmt.Sprintf("recorded %s (%s)", rec.Label, rec.Phase))

	if cfg.Sync.Mode == domain.SyncModeBackground && cfg.Remote.Configured() {
		if err := a.spawner.Spawn(ctx, p.Root, p.Name); err != nil {
			a.logger.Warn("sync worker not started: " + err.Error())
		}
	}

	switch {
	case runErr != nil:
		return errors.Join(domain.ErrRunFailed, runErr)
	case status != 0:
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrRunFailed, "command exited with non-zero status"), "label", rec.Label), "exit_status", status)
	}
	return nil
}

// parameters merges the parameter file with command line assignments.
func (a *App) parameters(wd string, opts RunOptions) (*domain.ParameterSet, error) {
	if opts.ParameterFile == "" && len(opts.Parameters) == 0 {
		return nil, nil
	}
	set := domain.NewParameterSet()
	if opts.ParameterFile != "" {
		path := opts.ParameterFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(wd, path)
		}
		loaded, err := a.loader.LoadParameters(path)
		if err != nil {
			return nil, err
		}
		set = loaded
	}
	for _, assignment := range opts.Parameters {
		if err := domain.ParseAssignment(set, assignment); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// relativeTo expresses path, given relative to wd, relative to the project root.
// Glob characters survive the conversion.
func relativeTo(root, wd, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(wd, path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", zerr.With(zerr.Wrap(domain.ErrInputNotFound, "path is outside the project"), "path", path)
	}
	return filepath.ToSlash(rel), nil
}

func relativeAll(root, wd string, paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := relativeTo(root, wd, path)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, nil
}
