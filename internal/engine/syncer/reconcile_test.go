package syncer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/engine/syncer"
)

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	e, srv := newServerEnv(t)

	// Only on the remote.
	colleague := newRecord("id-remote", "colleague", 0, dep("model.py", "code"))
	colleague.Warnings = []domain.Warning{{Kind: domain.WarnChangedSinceLastUse, Path: "model.py"}}
	srv.Seed(t, "neuro", colleague)
	// Pushed before a crash, still queued locally.
	srv.Seed(t, "neuro", newRecord("id-adopt", "adopt", 1))
	e.put(t, newRecord("id-adopt", "adopt", 1), domain.SyncQueued)
	// Same id, different content.
	changed := newRecord("id-changed", "changed", 2)
	changed.Reason = "edited on another machine"
	srv.Seed(t, "neuro", changed)
	e.put(t, newRecord("id-changed", "changed", 2))
	// Same label, different record.
	srv.Seed(t, "neuro", newRecord("id-theirs", "shared", 3))
	e.put(t, newRecord("id-mine", "shared", 4), domain.SyncQueued)

	report, err := e.engine.Reconcile(ctx, e.cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"colleague"}, report.Imported)
	assert.Equal(t, []string{"adopt"}, report.Adopted)
	require.Len(t, report.Conflicts, 2)
	assert.Equal(t, "changed", report.Conflicts[0].Label)
	assert.Equal(t, "shared", report.Conflicts[1].Label)

	imported, err := e.store.Get(ctx, e.project, "colleague")
	require.NoError(t, err)
	assert.Equal(t, "id-remote", imported.ID)
	assert.Equal(t, colleague.Warnings, imported.Warnings)
	assert.Equal(t, domain.SyncSynced, imported.Sync.State)
	assert.Equal(t, srv.Records("neuro")[0].IdempotencyKey, imported.Sync.IdempotencyKey)
	pending, err := e.store.PendingDependencies(ctx, e.project, imported.DependencyDigests())
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.Equal(t, domain.SyncSynced, e.sync(t, "adopt").State)

	meta := e.sync(t, "changed")
	assert.Equal(t, domain.SyncConflict, meta.State)
	assert.Contains(t, meta.LastError, "different version")

	mine := e.sync(t, "shared")
	assert.Equal(t, domain.SyncConflict, mine.State)
	got, err := e.store.Get(ctx, e.project, "shared")
	require.NoError(t, err)
	assert.Equal(t, "id-mine", got.ID)

	// Nothing left to do on a second pass except reporting the same mismatches.
	report, err = e.engine.Reconcile(ctx, e.cfg)
	require.NoError(t, err)
	assert.Empty(t, report.Imported)
	assert.Empty(t, report.Adopted)
	assert.Len(t, report.Conflicts, 2)
}

func TestReconcile_ImportsKeepCreationOrder(t *testing.T) {
	ctx := context.Background()
	e, srv := newServerEnv(t)
	e.put(t, newRecord("id-mine", "mine-new", 10))
	srv.Seed(t, "neuro", newRecord("id-old", "colleague-old", 0))

	report, err := e.engine.Reconcile(ctx, e.cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"colleague-old"}, report.Imported)

	var order []string
	for rec, err := range e.store.List(ctx, e.project, domain.Filter{}) {
		require.NoError(t, err)
		order = append(order, rec.Label)
	}
	assert.Equal(t, []string{"colleague-old", "mine-new"}, order)

	last, err := e.store.MostRecent(ctx, e.project)
	require.NoError(t, err)
	assert.Equal(t, "mine-new", last.Label)
}

func TestReconcile_SyncedRecordsStayFrozen(t *testing.T) {
	ctx := context.Background()
	e, srv := newServerEnv(t)
	e.put(t, newRecord("id-1", "baseline", 0), domain.SyncQueued, domain.SyncPushing, domain.SyncSynced)
	changed := newRecord("id-1", "baseline", 0)
	changed.Tags = []string{"forced"}
	srv.Seed(t, "neuro", changed)

	report, err := e.engine.Reconcile(ctx, e.cfg)
	require.NoError(t, err)
	assert.Equal(t, []syncer.Mismatch{{Label: "baseline", Reason: "remote holds a different version"}}, report.Conflicts)
	assert.Equal(t, domain.SyncSynced, e.sync(t, "baseline").State)
}

func TestReconcile_UnknownRemoteProject(t *testing.T) {
	e, _ := newServerEnv(t)
	e.put(t, newRecord("id-1", "baseline", 0))

	report, err := e.engine.Reconcile(context.Background(), e.cfg)
	require.NoError(t, err)
	assert.Empty(t, report.Imported)
	assert.Empty(t, report.Conflicts)
}
