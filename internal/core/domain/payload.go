package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"time"

	"go.trai.ch/zerr"
)

// RecordMediaType is the versioned content type of a transmitted record.
const RecordMediaType = "application/vnd.prov.record-v1+json"

// document is the content of a record without sync metadata.
// Field order is fixed by the struct, timestamps are UTC.
type document struct {
	ID           string        `json:"id"`
	Label        string        `json:"label"`
	Project      string        `json:"project"`
	Executable   Executable    `json:"executable"`
	MainRef      string        `json:"main_ref,omitempty"`
	ScriptArgs   []string      `json:"script_args,omitempty"`
	Parameters   *ParameterSet `json:"parameters,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	DurationNS   int64         `json:"duration_ns"`
	Outcome      Outcome       `json:"outcome"`
	Tags         []string      `json:"tags,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	User         string        `json:"user,omitempty"`
	VCS          VCSState      `json:"vcs"`
	Dependencies []Dependency  `json:"dependencies,omitempty"`
	Outputs      []Dependency  `json:"outputs,omitempty"`
	StdoutStderr string        `json:"stdout_stderr,omitempty"`
	Warnings     []Warning     `json:"warnings,omitempty"`
	Phase        Phase         `json:"phase"`
}

// CanonicalDocument encodes the record content deterministically.
// Sync metadata is excluded.
func CanonicalDocument(r *Record) ([]byte, error) {
	doc := document{
		ID:           r.ID,
		Label:        r.Label,
		Project:      r.Project,
		Executable:   r.Executable,
		MainRef:      r.MainRef,
		ScriptArgs:   r.ScriptArgs,
		Parameters:   r.Parameters,
		StartedAt:    r.StartedAt.UTC(),
		DurationNS:   int64(r.Duration),
		Outcome:      r.Outcome,
		Tags:         r.Tags,
		Reason:       r.Reason,
		User:         r.User,
		VCS:          r.VCS,
		Dependencies: utcDependencies(r.Dependencies),
		Outputs:      utcDependencies(r.Outputs),
		StdoutStderr: r.StdoutStderr,
		Warnings:     r.Warnings,
		Phase:        r.Phase,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, ErrStoreMarshalFailed.Error()), "record", r.ID)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeDocument parses a canonical document back into a record with no sync metadata.
func DecodeDocument(data []byte) (*Record, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(err, ErrStoreUnmarshalFailed.Error())
	}
	return &Record{
		ID:           doc.ID,
		Label:        doc.Label,
		Project:      doc.Project,
		Executable:   doc.Executable,
		MainRef:      doc.MainRef,
		ScriptArgs:   doc.ScriptArgs,
		Parameters:   doc.Parameters,
		StartedAt:    doc.StartedAt,
		Duration:     time.Duration(doc.DurationNS),
		Outcome:      doc.Outcome,
		Tags:         doc.Tags,
		Reason:       doc.Reason,
		User:         doc.User,
		VCS:          doc.VCS,
		Dependencies: doc.Dependencies,
		Outputs:      doc.Outputs,
		StdoutStderr: doc.StdoutStderr,
		Warnings:     doc.Warnings,
		Phase:        doc.Phase,
	}, nil
}

// IdempotencyKey is the digest of the canonical document. Two pushes of the
// same record content carry the same key.
func IdempotencyKey(r *Record) (string, error) {
	doc, err := CanonicalDocument(r)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(doc)
	return FormatDigest(sum[:]), nil
}

func utcDependencies(deps []Dependency) []Dependency {
	if len(deps) == 0 {
		return nil
	}
	out := make([]Dependency, len(deps))
	for i, d := range deps {
		d.ModTime = d.ModTime.UTC()
		out[i] = d
	}
	return out
}
