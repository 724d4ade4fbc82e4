package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/core/domain"
)

func fixtureRecord() *domain.Record {
	zone := time.FixedZone("CEST", 2*60*60)
	params := domain.NewParameterSet()
	params.Set("dt", 0.1)
	params.Set("n", int64(3))

	return &domain.Record{
		ID:      "0190b6d2-0000-7000-8000-000000000001",
		Label:   "baseline",
		Project: "demo",
		Executable: domain.Executable{
			Name:    "Python",
			Path:    "/usr/bin/python3",
			Version: "3.12.1",
		},
		MainRef:    "model.py",
		ScriptArgs: []string{"--fast"},
		Parameters: params,
		StartedAt:  time.Date(2026, 3, 1, 14, 0, 0, 0, zone),
		Duration:   1500 * time.Millisecond,
		Outcome:    domain.Outcome{ExitStatus: 0, Text: "ok"},
		Tags:       []string{"a"},
		User:       "ada",
		VCS:        domain.VCSState{Kind: domain.VCSGit, Revision: "abc123"},
		Dependencies: []domain.Dependency{{
			Path:     "model.py",
			Digest:   "sha256:" + strings.Repeat("a", 64),
			Size:     10,
			ModTime:  time.Date(2026, 3, 1, 13, 0, 0, 0, zone),
			Revision: "abc123",
		}},
		StdoutStderr: "step 1\nstep 2\n",
		Warnings:     []domain.Warning{{Kind: domain.WarnDirtyWorkingCopy}},
		Phase:        domain.PhaseFinished,
		Sync:         domain.SyncMeta{State: domain.SyncQueued, RetryCount: 2},
	}
}

func TestCanonicalDocument_Golden(t *testing.T) {
	doc, err := domain.CanonicalDocument(fixtureRecord())
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "canonical_record", doc)
}

func TestCanonicalDocument_RoundTrip(t *testing.T) {
	rec := fixtureRecord()
	doc, err := domain.CanonicalDocument(rec)
	require.NoError(t, err)

	decoded, err := domain.DecodeDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, decoded.ID)
	assert.Equal(t, rec.Duration, decoded.Duration)
	assert.True(t, rec.StartedAt.Equal(decoded.StartedAt))
	assert.Empty(t, decoded.Sync.State)
	assert.Equal(t, rec.Warnings, decoded.Warnings)
	assert.Equal(t, rec.StdoutStderr, decoded.StdoutStderr)

	again, err := domain.CanonicalDocument(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(doc), string(again))
}

func TestIdempotencyKey(t *testing.T) {
	rec := fixtureRecord()
	key, err := domain.IdempotencyKey(rec)
	require.NoError(t, err)
	assert.True(t, domain.ValidDigest(key))

	t.Run("ignores sync metadata", func(t *testing.T) {
		other := fixtureRecord()
		other.Sync = domain.SyncMeta{State: domain.SyncFailed, LastError: "boom"}
		otherKey, err := domain.IdempotencyKey(other)
		require.NoError(t, err)
		assert.Equal(t, key, otherKey)
	})

	t.Run("changes with content", func(t *testing.T) {
		other := fixtureRecord()
		other.Parameters.Set("n", int64(4))
		otherKey, err := domain.IdempotencyKey(other)
		require.NoError(t, err)
		assert.NotEqual(t, key, otherKey)
	})

	t.Run("changes with warnings", func(t *testing.T) {
		other := fixtureRecord()
		other.Warnings = append(other.Warnings, domain.Warning{Kind: domain.WarnChangedSinceLastUse, Path: "model.py"})
		otherKey, err := domain.IdempotencyKey(other)
		require.NoError(t, err)
		assert.NotEqual(t, key, otherKey)
	})

	t.Run("changes with dependency digest", func(t *testing.T) {
		other := fixtureRecord()
		other.Dependencies[0].Digest = "sha256:" + strings.Repeat("b", 64)
		otherKey, err := domain.IdempotencyKey(other)
		require.NoError(t, err)
		assert.NotEqual(t, key, otherKey)
	})
}
