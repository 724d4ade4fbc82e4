// Package capture creates provenance records around a monitored run.
package capture

import (
	"context"
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
)

// BeginOptions describe a run about to start.
type BeginOptions struct {
	// Label defaults to the start time formatted with domain.LabelTimeFormat.
	Label     string
	Overwrite bool
	// Executable is detected from its name or from MainRef when Path is empty.
	Executable     domain.Executable
	MainRef        string
	Parameters     *domain.ParameterSet
	DependencyRefs []string
	Tags           []string
	Reason         string
	ScriptArgs     []string
	// Snapshot copies dependency content into the store.
	Snapshot bool
}

// EndOptions describe how a run ended.
type EndOptions struct {
	Outputs    []string
	ExitStatus int
	// Duration defaults to the time elapsed since BeginRecord.
	Duration time.Duration
	Outcome  string
	// Output is the combined stdout and stderr kept with the record.
	Output string
}

// Handle refers to a record created by BeginRecord.
type Handle struct {
	Project    domain.Project
	ID         string
	Label      string
	StartedAt  time.Time
	Executable domain.Executable
}

// Capture implements record capture on top of the store, resolver and VCS detector.
type Capture struct {
	store    ports.RecordStore
	resolver ports.DependencyResolver
	vcs      ports.VCSDetector
	programs ports.ProgramDetector
	logger   ports.Logger

	now      func() time.Time
	newID    func() (string, error)
	username func() string
}

// New creates a Capture.
func New(
	store ports.RecordStore,
	resolver ports.DependencyResolver,
	vcs ports.VCSDetector,
	programs ports.ProgramDetector,
	logger ports.Logger,
) *Capture {
	return &Capture{
		store:    store,
		resolver: resolver,
		vcs:      vcs,
		programs: programs,
		logger:   logger,
		now:      time.Now,
		newID:    newRecordID,
		username: currentUser,
	}
}

func newRecordID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", zerr.Wrap(err, "failed to generate record id")
	}
	return id.String(), nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// BeginRecord resolves dependencies and the working copy state and stores a
// new record in phase Running.
func (c *Capture) BeginRecord(ctx context.Context, p domain.Project, opts BeginOptions) (*Handle, error) {
	started := c.now().UTC()

	label := opts.Label
	if label == "" {
		label = started.Format(domain.LabelTimeFormat)
	}
	if err := domain.ValidateLabel(label); err != nil {
		return nil, err
	}
	// Checked before hashing so a taken label fails fast. Put checks again under the lock.
	if !opts.Overwrite {
		if err := c.ensureLabelFree(ctx, p, label); err != nil {
			return nil, err
		}
	}

	id, err := c.newID()
	if err != nil {
		return nil, err
	}

	patterns := opts.DependencyRefs
	if opts.MainRef != "" {
		patterns = append([]string{opts.MainRef}, opts.DependencyRefs...)
	}
	deps, err := c.resolver.Resolve(ctx, p.Root, patterns)
	if err != nil {
		return nil, err
	}
	exe, err := c.executable(ctx, opts)
	if err != nil {
		return nil, err
	}

	rec := &domain.Record{
		ID:           id,
		Label:        label,
		Project:      p.Name,
		Executable:   exe,
		MainRef:      opts.MainRef,
		ScriptArgs:   opts.ScriptArgs,
		Parameters:   opts.Parameters,
		StartedAt:    started,
		Tags:         opts.Tags,
		Reason:       opts.Reason,
		User:         c.username(),
		Dependencies: deps,
		Phase:        domain.PhaseRunning,
		Sync:         domain.SyncMeta{State: domain.SyncLocalOnly},
	}

	c.readWorkingCopy(ctx, p, rec)
	if err := c.checkStaleness(ctx, p, rec); err != nil {
		return nil, err
	}

	if err := c.store.Put(ctx, p, rec, opts.Overwrite); err != nil {
		return nil, err
	}
	for _, w := range rec.Warnings {
		c.logger.Warn(warningText(w))
	}

	if opts.Snapshot {
		c.snapshot(ctx, p, rec)
	}

	return &Handle{Project: p, ID: rec.ID, Label: rec.Label, StartedAt: started, Executable: exe}, nil
}

func (c *Capture) ensureLabelFree(ctx context.Context, p domain.Project, label string) error {
	existing, err := c.store.Get(ctx, p, label)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.Label == label:
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrDuplicateLabel, "label is taken"), "label", label), "holder", existing.ID)
	default:
		return nil
	}
}

// executable fills in path and version unless the caller already did.
// Detection failures are tolerated as long as something names the program.
func (c *Capture) executable(ctx context.Context, opts BeginOptions) (domain.Executable, error) {
	if opts.Executable.Path != "" || c.programs == nil {
		return opts.Executable, nil
	}
	exe, err := c.programs.Detect(ctx, opts.Executable.Name, opts.MainRef)
	if err != nil {
		if opts.Executable.Name == "" {
			return domain.Executable{}, err
		}
		c.logger.Debug("executable detection failed: " + err.Error())
		return opts.Executable, nil
	}
	return exe, nil
}

// readWorkingCopy records the VCS state. Failures become warnings.
func (c *Capture) readWorkingCopy(ctx context.Context, p domain.Project, rec *domain.Record) {
	rec.VCS = domain.VCSState{Kind: domain.VCSNone}

	vc, err := c.vcs.Detect(ctx, p.Root)
	if err != nil {
		rec.Warnings = append(rec.Warnings, domain.Warning{Kind: domain.WarnVersionControl, Detail: err.Error()})
		return
	}
	rec.VCS.Kind = vc.Kind()
	if vc.Kind() == domain.VCSNone {
		return
	}

	rev, ok, err := vc.CurrentRevision(ctx)
	if err != nil {
		rec.Warnings = append(rec.Warnings, domain.Warning{Kind: domain.WarnVersionControl, Detail: err.Error()})
		return
	}
	if ok {
		rec.VCS.Revision = rev
		for i := range rec.Dependencies {
			rec.Dependencies[i].Revision = rev
		}
	}

	dirty, err := vc.IsDirty(ctx)
	if err != nil {
		rec.Warnings = append(rec.Warnings, domain.Warning{Kind: domain.WarnVersionControl, Detail: err.Error()})
		return
	}
	if !dirty {
		return
	}
	rec.VCS.Dirty = true
	rec.Warnings = append(rec.Warnings, domain.Warning{Kind: domain.WarnDirtyWorkingCopy, Detail: "working copy has uncommitted changes"})

	patch, ok, err := vc.Diff(ctx)
	switch {
	case err != nil:
		rec.Warnings = append(rec.Warnings, domain.Warning{Kind: domain.WarnVersionControl, Detail: err.Error()})
	case ok:
		rec.VCS.Diff = patch
	}
}

// checkStaleness warns about dependencies whose content changed since their last recorded use.
func (c *Capture) checkStaleness(ctx context.Context, p domain.Project, rec *domain.Record) error {
	for _, dep := range rec.Dependencies {
		last, ok, err := c.store.LastDigest(ctx, p, dep.Path)
		if err != nil {
			return err
		}
		if ok && last != dep.Digest {
			rec.Warnings = append(rec.Warnings, domain.Warning{
				Kind:   domain.WarnChangedSinceLastUse,
				Path:   dep.Path,
				Detail: "was " + last,
			})
		}
	}
	return nil
}

// snapshot copies dependency content into the store. A file that changed
// since it was hashed is skipped with a warning.
func (c *Capture) snapshot(ctx context.Context, p domain.Project, rec *domain.Record) {
	for _, dep := range rec.Dependencies {
		if err := c.store.Snapshot(ctx, p, dep, filepath.Join(p.Root, filepath.FromSlash(dep.Path))); err != nil {
			c.logger.Warn("snapshot of " + dep.Path + " skipped: " + err.Error())
		}
	}
}

// EndRecord attaches outputs and the exit outcome and queues the record for sync.
// It never performs network I/O.
func (c *Capture) EndRecord(ctx context.Context, h *Handle, opts EndOptions) (*domain.Record, error) {
	rec, err := c.store.Get(ctx, h.Project, h.ID)
	if err != nil {
		return nil, err
	}
	if rec.Phase != domain.PhaseRunning {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidState, "record already ended"), "record", h.ID), "phase", string(rec.Phase))
	}

	outputs := make([]domain.Dependency, 0, len(opts.Outputs))
	for _, path := range opts.Outputs {
		dep, err := c.resolver.Describe(ctx, h.Project.Root, path)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, dep)
	}

	rec.Outputs = outputs
	rec.Duration = opts.Duration
	if rec.Duration == 0 {
		rec.Duration = c.now().Sub(rec.StartedAt)
	}
	rec.Outcome = domain.Outcome{ExitStatus: opts.ExitStatus, Text: opts.Outcome}
	rec.StdoutStderr = opts.Output
	rec.Phase = domain.PhaseFinished
	if opts.ExitStatus != 0 {
		rec.Phase = domain.PhaseFailed
	}

	if err := c.store.Update(ctx, h.Project, rec); err != nil {
		return nil, err
	}
	return c.store.UpdateSync(ctx, h.Project, rec.ID, func(m *domain.SyncMeta) error {
		m.State = domain.SyncQueued
		return nil
	})
}

func warningText(w domain.Warning) string {
	msg := string(w.Kind)
	if w.Path != "" {
		msg += " " + w.Path
	}
	if w.Detail != "" {
		msg += ": " + w.Detail
	}
	return msg
}
