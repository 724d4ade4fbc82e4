//nolint:testpackage // Test needs access to unexported fields
package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
)

func snapshot() Snapshot {
	return Snapshot{
		Worker: ports.WorkerStatus{Running: true, PID: 4242, StartedAt: time.Now()},
		Records: []domain.SyncStatus{
			{Label: "baseline", State: domain.SyncSynced},
			{Label: "tuned", State: domain.SyncPushing},
			{Label: "sweep", State: domain.SyncFailed, Retryable: true, RetryCount: 1, NextAttemptAt: time.Now().Add(time.Minute)},
			{Label: "clash", State: domain.SyncConflict, LastError: "label holds a different record"},
		},
	}
}

func TestModel_LoadsAndSchedulesRefresh(t *testing.T) {
	calls := 0
	m := NewModel(context.Background(), func(context.Context) (Snapshot, error) {
		calls++
		return snapshot(), nil
	}, time.Second)

	msg := m.fetch()()
	require.IsType(t, MsgSnapshot{}, msg)
	assert.Equal(t, 1, calls)

	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	assert.True(t, m.loaded)
	assert.Len(t, m.snapshot.Records, 4)

	_, cmd = m.Update(msgRefresh{})
	require.NotNil(t, cmd)
	_ = cmd()
	assert.Equal(t, 2, calls)
}

func TestModel_View(t *testing.T) {
	m := NewModel(context.Background(), nil, time.Second)
	assert.Contains(t, m.View(), "loading")

	m.Update(MsgSnapshot{Snapshot: snapshot()})
	view := m.View()
	assert.Contains(t, view, "worker pid 4242")
	assert.Contains(t, view, "1 synced, 1 pushing, 1 failed, 1 conflict")
	assert.Contains(t, view, "baseline")
	assert.Contains(t, view, "retry 2 at")
	assert.Contains(t, view, "label holds a different record")
	assert.Contains(t, view, "q to quit")
}

func TestModel_ViewKeepsNewestRecords(t *testing.T) {
	m := NewModel(context.Background(), nil, time.Second)
	snap := Snapshot{}
	for i := range 10 {
		snap.Records = append(snap.Records, domain.SyncStatus{Label: fmt.Sprintf("run-%02d", i), State: domain.SyncQueued})
	}
	m.Update(MsgSnapshot{Snapshot: snap})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: headerLines + 3})

	view := m.View()
	assert.NotContains(t, view, "run-06")
	for _, label := range []string{"run-07", "run-08", "run-09"} {
		assert.Contains(t, view, label)
	}
	assert.Contains(t, view, "worker stopped")
	assert.Equal(t, 1, strings.Count(view, "10 queued"))
}

func TestModel_QuitsOnKey(t *testing.T) {
	m := NewModel(context.Background(), nil, time.Second)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_LoadFailureEndsView(t *testing.T) {
	errBroken := zerr.Wrap(domain.ErrStoreReadFailed, "index unreadable")
	m := NewModel(context.Background(), func(context.Context) (Snapshot, error) {
		return Snapshot{}, errBroken
	}, time.Second)

	msg := m.fetch()()
	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	require.ErrorIs(t, m.Err(), domain.ErrStoreReadFailed)
}
