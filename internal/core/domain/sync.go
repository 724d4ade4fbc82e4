package domain

import (
	"errors"
	"time"

	"go.trai.ch/zerr"
)

// SyncState is the position of a record in the synchronization state machine.
type SyncState string

const (
	// SyncLocalOnly records exist only in the local store.
	SyncLocalOnly SyncState = "local-only"
	// SyncQueued records are waiting to be pushed.
	SyncQueued SyncState = "queued"
	// SyncPushing records have a push in flight.
	SyncPushing SyncState = "pushing"
	// SyncSynced records are acknowledged by the remote and frozen.
	SyncSynced SyncState = "synced"
	// SyncConflict records collide with a different remote record under the same label.
	SyncConflict SyncState = "conflict"
	// SyncFailed records failed to push; see SyncMeta.Retryable.
	SyncFailed SyncState = "failed"
)

// Conflict is also reachable from the resting states, and Synced from
// Queued and Failed, so that reconciliation can adopt what the remote holds.
var syncTransitions = map[SyncState][]SyncState{
	SyncLocalOnly: {SyncQueued, SyncConflict},
	SyncQueued:    {SyncPushing, SyncLocalOnly, SyncConflict, SyncSynced},
	SyncPushing:   {SyncSynced, SyncConflict, SyncFailed, SyncQueued},
	SyncFailed:    {SyncQueued, SyncLocalOnly, SyncConflict, SyncSynced},
	SyncConflict:  {SyncQueued, SyncLocalOnly},
	SyncSynced:    {},
}

// CanTransition reports whether the state machine allows moving from s to next.
// Staying in the same state is always allowed.
func (s SyncState) CanTransition(next SyncState) bool {
	if s == next {
		return true
	}
	for _, allowed := range syncTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known sync state.
func (s SyncState) Valid() bool {
	_, ok := syncTransitions[s]
	return ok
}

// ParseSyncState converts user input into a SyncState.
func ParseSyncState(s string) (SyncState, error) {
	state := SyncState(s)
	if !state.Valid() {
		return "", zerr.With(zerr.Wrap(ErrInvalidState, "unknown sync state"), "state", s)
	}
	return state, nil
}

// SyncMeta is the synchronization bookkeeping attached to a record.
// It is never part of the transmitted payload.
type SyncMeta struct {
	State          SyncState `json:"state"`
	Retryable      bool      `json:"retryable,omitempty"`
	RetryCount     int       `json:"retry_count,omitempty"`
	LastError      string    `json:"last_error,omitempty"`
	LastAttemptAt  time.Time `json:"last_attempt_at,omitzero"`
	NextAttemptAt  time.Time `json:"next_attempt_at,omitzero"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Force          bool      `json:"force,omitempty"`
	// Rejection is the request the remote refused as malformed, kept until the next push.
	Rejection *Rejection `json:"rejection,omitempty"`
}

// Rejection is the context of a push the remote rejected as invalid.
type Rejection struct {
	Payload        string `json:"payload"`
	Response       string `json:"response,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// RejectionOf extracts the rejected request from a validation error.
// It returns nil for every other error.
func RejectionOf(err error) *Rejection {
	if !errors.Is(err, ErrValidation) {
		return nil
	}
	r := &Rejection{}
	if v, ok := ErrorDetail(err, "payload"); ok {
		r.Payload, _ = v.(string)
	}
	if v, ok := ErrorDetail(err, "response"); ok {
		r.Response, _ = v.(string)
	}
	if v, ok := ErrorDetail(err, "idempotency_key"); ok {
		r.IdempotencyKey, _ = v.(string)
	}
	return r
}

// Terminal reports whether the record needs an explicit user action before it is pushed again.
func (m SyncMeta) Terminal() bool {
	return m.State == SyncConflict || (m.State == SyncFailed && !m.Retryable)
}

// SyncStatus is a per-record view of synchronization progress.
type SyncStatus struct {
	ID            string
	Label         string
	CreatedAt     time.Time
	State         SyncState
	Retryable     bool
	RetryCount    int
	LastError     string
	NextAttemptAt time.Time
}

// RemoteSummary is the remote's listing entry for a record.
type RemoteSummary struct {
	ID             string    `json:"id"`
	Label          string    `json:"label"`
	IdempotencyKey string    `json:"idempotency_key"`
	Timestamp      time.Time `json:"timestamp"`
}

// PushRequest is one create-record call against the remote.
type PushRequest struct {
	Label          string
	IdempotencyKey string
	Document       []byte
	Dependencies   []DependencyBody
	Force          bool
}

// PushResult reports how the remote accepted a push.
type PushResult struct {
	// Created is false when the remote already held the record under the same key.
	Created bool
}
