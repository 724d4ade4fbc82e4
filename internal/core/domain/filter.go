package domain

import (
	"path"
	"slices"
	"time"

	"go.trai.ch/zerr"
)

// Filter selects records from a project listing. Zero fields match everything.
type Filter struct {
	// Label is a glob matched against the record label.
	Label  string
	Since  time.Time
	Until  time.Time
	Tags   []string
	States []SyncState
}

// Validate checks the label pattern.
func (f Filter) Validate() error {
	if f.Label == "" {
		return nil
	}
	if _, err := path.Match(f.Label, ""); err != nil {
		return zerr.With(zerr.Wrap(err, "invalid label pattern"), "pattern", f.Label)
	}
	return nil
}

// Match reports whether a summary passes the filter. All tags must be present.
// A malformed label pattern matches nothing; see Validate.
func (f Filter) Match(s RecordSummary) bool {
	if f.Label != "" {
		if ok, err := path.Match(f.Label, s.Label); err != nil || !ok {
			return false
		}
	}
	if !f.Since.IsZero() && s.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !s.CreatedAt.Before(f.Until) {
		return false
	}
	for _, tag := range f.Tags {
		if !slices.Contains(s.Tags, tag) {
			return false
		}
	}
	if len(f.States) > 0 && !slices.Contains(f.States, s.State) {
		return false
	}
	return true
}
