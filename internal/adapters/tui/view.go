package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/ui/style"
)

// headerLines is the height of the worker line, the summary and the footer.
const headerLines = 4

// View renders the current state of the model as a string.
func (m *Model) View() string {
	if !m.loaded {
		return m.spinner.View() + " loading\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("SYNC") + " " + m.workerLine() + "\n")
	s.WriteString(summaryStyle.Render(m.summary()) + "\n\n")

	records := m.snapshot.Records
	// Keep the newest records when the terminal is too short.
	if room := m.height - headerLines; m.height > 0 && len(records) > room {
		records = records[len(records)-max(room, 0):]
	}
	width := labelWidth(records)
	for _, rec := range records {
		s.WriteString(m.row(rec, width) + "\n")
	}

	s.WriteString(footerStyle.Render("q to quit") + "\n")
	return s.String()
}

func (m *Model) workerLine() string {
	w := m.snapshot.Worker
	if !w.Running {
		return footerStyle.Render("worker stopped")
	}
	return fmt.Sprintf("worker pid %d since %s", w.PID, w.StartedAt.Local().Format("15:04:05"))
}

// summary counts records per sync state in a fixed order.
func (m *Model) summary() string {
	counts := make(map[domain.SyncState]int)
	for _, rec := range m.snapshot.Records {
		counts[rec.State]++
	}
	order := []domain.SyncState{
		domain.SyncSynced, domain.SyncPushing, domain.SyncQueued,
		domain.SyncFailed, domain.SyncConflict, domain.SyncLocalOnly,
	}
	parts := make([]string, 0, len(order))
	for _, state := range order {
		if n := counts[state]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, state))
		}
	}
	if len(parts) == 0 {
		return "no records"
	}
	return strings.Join(parts, ", ")
}

func (m *Model) row(rec domain.SyncStatus, width int) string {
	icon, color := style.StateIcon(rec.State)
	if rec.State == domain.SyncPushing {
		icon = m.spinner.View()
	} else {
		icon = lipgloss.NewStyle().Foreground(color).Render(icon)
	}

	line := fmt.Sprintf("%s %-*s %s", icon, width, rec.Label, rec.State)
	switch {
	case rec.State == domain.SyncFailed && rec.Retryable && !rec.NextAttemptAt.IsZero():
		line += detailStyle.Render(fmt.Sprintf("  retry %d at %s", rec.RetryCount+1, rec.NextAttemptAt.Local().Format("15:04:05")))
	case rec.LastError != "":
		line += detailStyle.Render("  " + rec.LastError)
	}
	return line
}

func labelWidth(records []domain.SyncStatus) int {
	width := 0
	for _, rec := range records {
		width = max(width, lipgloss.Width(rec.Label))
	}
	return width
}
