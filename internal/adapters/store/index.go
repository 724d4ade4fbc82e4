package store

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"

	"go.trai.ch/prov/internal/core/domain"
)

const indexVersion = 1

// depEntry is the deduplicated bookkeeping of one dependency digest.
type depEntry struct {
	Digest   string `json:"digest"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Revision string `json:"revision,omitempty"`
	RefCount int    `json:"ref_count"`
	Remote   bool   `json:"remote,omitempty"`
}

// index is the per-project catalogue. It is always replaced as a whole.
type index struct {
	Version     int                    `json:"version"`
	Project     string                 `json:"project"`
	Labels      map[string]string      `json:"labels"`
	Records     []domain.RecordSummary `json:"records"`
	LastDigests map[string]string      `json:"last_digests"`
	Deps        map[string]*depEntry   `json:"deps"`
}

func newIndex(project string) *index {
	return &index{
		Version:     indexVersion,
		Project:     project,
		Labels:      make(map[string]string),
		LastDigests: make(map[string]string),
		Deps:        make(map[string]*depEntry),
	}
}

func indexPath(dir string) string {
	return filepath.Join(dir, domain.IndexFileName)
}

// loadIndex reads the project index. A missing index is an empty project.
func loadIndex(dir, project string) (*index, error) {
	ix := newIndex(project)
	if err := readJSON(indexPath(dir), ix); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return newIndex(project), nil
		}
		return nil, err
	}
	if ix.Labels == nil {
		ix.Labels = make(map[string]string)
	}
	if ix.LastDigests == nil {
		ix.LastDigests = make(map[string]string)
	}
	if ix.Deps == nil {
		ix.Deps = make(map[string]*depEntry)
	}
	return ix, nil
}

func (ix *index) save(dir string) error {
	return writeJSON(indexPath(dir), ix)
}

func (ix *index) position(id string) int {
	return slices.IndexFunc(ix.Records, func(s domain.RecordSummary) bool { return s.ID == id })
}

// resolve maps a label or id to a record id. Labels take precedence.
func (ix *index) resolve(labelOrID string) (string, bool) {
	if id, ok := ix.Labels[labelOrID]; ok {
		return id, true
	}
	if ix.position(labelOrID) >= 0 {
		return labelOrID, true
	}
	return "", false
}

// setSummary keeps Records ordered by creation time. Records created at the
// same instant stay in arrival order.
func (ix *index) setSummary(sum domain.RecordSummary) {
	if i := ix.position(sum.ID); i >= 0 {
		ix.Records[i] = sum
	} else {
		ix.Records = append(ix.Records, sum)
	}
	slices.SortStableFunc(ix.Records, func(a, b domain.RecordSummary) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// newest reports whether id is the last created record.
func (ix *index) newest(id string) bool {
	return len(ix.Records) > 0 && ix.Records[len(ix.Records)-1].ID == id
}

func (ix *index) removeSummary(id string) {
	ix.Records = slices.DeleteFunc(ix.Records, func(s domain.RecordSummary) bool { return s.ID == id })
}

// unlabel drops label only while it still points at id.
func (ix *index) unlabel(label, id string) {
	if ix.Labels[label] == id {
		delete(ix.Labels, label)
	}
}

// retain counts one reference per distinct digest of rec and remembers the
// digest of each path as of the newest record. Call it after setSummary.
func (ix *index) retain(rec *domain.Record) {
	newest := ix.newest(rec.ID)
	seen := make(map[string]bool)
	for _, dep := range rec.Dependencies {
		if dep.Digest == "" {
			continue
		}
		if _, known := ix.LastDigests[dep.Path]; newest || !known {
			ix.LastDigests[dep.Path] = dep.Digest
		}
		if seen[dep.Digest] {
			continue
		}
		seen[dep.Digest] = true

		entry, ok := ix.Deps[dep.Digest]
		if !ok {
			entry = &depEntry{
				Digest:   dep.Digest,
				Path:     dep.Path,
				Size:     dep.Size,
				Revision: dep.Revision,
			}
			ix.Deps[dep.Digest] = entry
		}
		entry.RefCount++
	}
}

// release drops the references of rec and returns the digests no record uses anymore.
func (ix *index) release(rec *domain.Record) []string {
	var dropped []string
	for _, digest := range rec.DependencyDigests() {
		entry, ok := ix.Deps[digest]
		if !ok {
			continue
		}
		entry.RefCount--
		if entry.RefCount <= 0 {
			delete(ix.Deps, digest)
			dropped = append(dropped, digest)
		}
	}
	return dropped
}
