// Package style provides shared UI styling primitives including brand colors
// and icons for consistent visual presentation across the CLI.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/prov/internal/core/domain"
)

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
	Blue   = lipgloss.Color("#3B82F6")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Dot     = "●"
	Circle  = "○"
	Arrow   = "→"
)

// StateIcon returns the icon and color used to render a sync state.
func StateIcon(s domain.SyncState) (string, lipgloss.Color) {
	switch s {
	case domain.SyncSynced:
		return Check, Green
	case domain.SyncQueued:
		return Circle, Blue
	case domain.SyncPushing:
		return Dot, Iris
	case domain.SyncConflict:
		return Warning, Yellow
	case domain.SyncFailed:
		return Cross, Red
	default:
		return Tilde, Slate
	}
}
