// Package tui provides the live view of the sync queue.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
)

// Snapshot is the sync state shown by one frame.
type Snapshot struct {
	Worker  ports.WorkerStatus
	Records []domain.SyncStatus
}

// Loader reads a fresh snapshot.
type Loader func(ctx context.Context) (Snapshot, error)

// MsgSnapshot carries a freshly loaded snapshot.
type MsgSnapshot struct {
	Snapshot Snapshot
}

// MsgLoadFailed is sent when the snapshot could not be loaded.
type MsgLoadFailed struct {
	Err error
}

// msgRefresh asks for the next snapshot.
type msgRefresh struct{}

// Model is the Bubble Tea model of the status view.
type Model struct {
	ctx      context.Context //nolint:containedctx // Loader calls outlive a single Update
	load     Loader
	interval time.Duration
	spinner  spinner.Model

	snapshot Snapshot
	loaded   bool
	err      error
	height   int
}

// NewModel creates a status view that reloads every interval.
func NewModel(ctx context.Context, load Loader, interval time.Duration) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = pushingStyle
	return &Model{
		ctx:      ctx,
		load:     load,
		interval: interval,
		spinner:  s,
	}
}

// Err returns the load error that ended the view, if any.
func (m *Model) Err() error {
	return m.err
}

// Init starts the first load and the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.spinner.Tick)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case MsgSnapshot:
		m.snapshot = msg.Snapshot
		m.loaded = true
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return msgRefresh{} })
	case MsgLoadFailed:
		m.err = msg.Err
		return m, tea.Quit
	case msgRefresh:
		return m, m.fetch()
	}
	return m, nil
}

// fetch returns a command that loads the next snapshot.
func (m *Model) fetch() tea.Cmd {
	return func() tea.Msg {
		snap, err := m.load(m.ctx)
		if err != nil {
			return MsgLoadFailed{Err: err}
		}
		return MsgSnapshot{Snapshot: snap}
	}
}
