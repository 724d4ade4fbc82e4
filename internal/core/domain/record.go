package domain

import (
	"slices"
	"strings"
	"time"

	"go.trai.ch/zerr"
)

// LabelTimeFormat derives a label from the start time when none is given.
const LabelTimeFormat = "20060102-150405"

// Phase is the execution phase of a record.
type Phase string

const (
	// PhaseRunning records have been started but not ended.
	PhaseRunning Phase = "running"
	// PhaseFinished records ended with exit status zero.
	PhaseFinished Phase = "finished"
	// PhaseFailed records ended with a non-zero exit status.
	PhaseFailed Phase = "failed"
)

// WarningKind classifies an informational capture warning.
type WarningKind string

const (
	// WarnDirtyWorkingCopy marks a run captured with uncommitted changes.
	WarnDirtyWorkingCopy WarningKind = "dirty-working-copy"
	// WarnChangedSinceLastUse marks a dependency whose content differs from its last recorded use.
	WarnChangedSinceLastUse WarningKind = "changed-since-last-use"
	// WarnVersionControl marks a run where the working copy state could not be read.
	WarnVersionControl WarningKind = "version-control"
)

// Warning is attached to a record at capture time. It never blocks capture.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Path   string      `json:"path,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

// Executable describes the program that ran the experiment.
type Executable struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// Outcome is the exit status and free-text outcome of a run.
type Outcome struct {
	ExitStatus int    `json:"exit_status"`
	Text       string `json:"text,omitempty"`
}

// VCSKind identifies a version control system.
type VCSKind string

const (
	// VCSNone is used when the project is not under version control.
	VCSNone VCSKind = "none"
	// VCSGit is a Git working copy.
	VCSGit VCSKind = "git"
	// VCSMercurial is a Mercurial working copy.
	VCSMercurial VCSKind = "mercurial"
	// VCSSubversion is a Subversion working copy.
	VCSSubversion VCSKind = "subversion"
)

// VCSState is the working copy state observed at capture time.
type VCSState struct {
	Kind     VCSKind `json:"kind"`
	Revision string  `json:"revision,omitempty"`
	Dirty    bool    `json:"dirty,omitempty"`
	Diff     string  `json:"diff,omitempty"`
}

// Record is the provenance of one experiment execution.
type Record struct {
	ID           string        `json:"id"`
	Label        string        `json:"label"`
	Project      string        `json:"project"`
	Executable   Executable    `json:"executable"`
	MainRef      string        `json:"main_ref,omitempty"`
	ScriptArgs   []string      `json:"script_args,omitempty"`
	Parameters   *ParameterSet `json:"parameters,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Outcome      Outcome       `json:"outcome"`
	Tags         []string      `json:"tags,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	User         string        `json:"user,omitempty"`
	VCS          VCSState      `json:"vcs"`
	Dependencies []Dependency  `json:"dependencies,omitempty"`
	Outputs      []Dependency  `json:"outputs,omitempty"`
	// StdoutStderr is the tail of the combined output of the run.
	StdoutStderr string    `json:"stdout_stderr,omitempty"`
	Warnings     []Warning `json:"warnings,omitempty"`
	Phase        Phase     `json:"phase"`
	Sync         SyncMeta  `json:"sync"`
}

// ContentMutable reports whether content fields may still change.
func (r *Record) ContentMutable() bool {
	return r.Phase == PhaseRunning || r.Sync.State == SyncLocalOnly
}

// HasTag reports whether the record carries tag.
func (r *Record) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

// AddTag adds tag unless already present.
func (r *Record) AddTag(tag string) {
	if !r.HasTag(tag) {
		r.Tags = append(r.Tags, tag)
	}
}

// RemoveTag removes tag if present.
func (r *Record) RemoveTag(tag string) {
	r.Tags = slices.DeleteFunc(r.Tags, func(t string) bool { return t == tag })
}

// DependencyDigests returns the digests of all dependencies with known content.
func (r *Record) DependencyDigests() []string {
	digests := make([]string, 0, len(r.Dependencies))
	for _, d := range r.Dependencies {
		if d.Digest != "" && !slices.Contains(digests, d.Digest) {
			digests = append(digests, d.Digest)
		}
	}
	return digests
}

// Summary returns the index view of the record.
func (r *Record) Summary() RecordSummary {
	return RecordSummary{
		ID:        r.ID,
		Label:     r.Label,
		CreatedAt: r.StartedAt,
		Tags:      slices.Clone(r.Tags),
		Phase:     r.Phase,
		State:     r.Sync.State,
	}
}

// Status returns the sync progress view of the record.
func (r *Record) Status() SyncStatus {
	return SyncStatus{
		ID:            r.ID,
		Label:         r.Label,
		CreatedAt:     r.StartedAt,
		State:         r.Sync.State,
		Retryable:     r.Sync.Retryable,
		RetryCount:    r.Sync.RetryCount,
		LastError:     r.Sync.LastError,
		NextAttemptAt: r.Sync.NextAttemptAt,
	}
}

// RecordSummary is the per-record entry kept in the project index.
type RecordSummary struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	Tags      []string  `json:"tags,omitempty"`
	Phase     Phase     `json:"phase"`
	State     SyncState `json:"state"`
}

// ValidateLabel checks that label can be used as a file-independent key and URL segment.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" || strings.ContainsAny(label, "/\\") || label == "." || label == ".." {
		return zerr.With(zerr.Wrap(ErrInvalidLabel, "label must be non-empty and must not contain path separators"), "label", label)
	}
	return nil
}
