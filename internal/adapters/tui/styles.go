package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/prov/internal/ui/style"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(style.Iris).
			Foreground(lipgloss.Color("#FFFFFF"))

	summaryStyle = lipgloss.NewStyle().
			Bold(true)

	pushingStyle = lipgloss.NewStyle().
			Foreground(style.Iris)

	detailStyle = lipgloss.NewStyle().
			Foreground(style.Slate)

	footerStyle = lipgloss.NewStyle().
			Foreground(style.Slate).
			Faint(true)
)
