package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/ui/output"
	"go.trai.ch/prov/internal/ui/style"
)

const (
	timeLayout   = "2006-01-02 15:04:05"
	shortDigest  = 12
	fieldPadding = 14
)

// printer renders reports for one writer.
type printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(output.ColorProfile())
	return &printer{w: w, renderer: r}
}

func (p *printer) line(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

// state renders a sync state with its icon and color.
func (p *printer) state(s domain.SyncState) string {
	icon, color := style.StateIcon(s)
	return p.renderer.NewStyle().Foreground(color).Render(icon + " " + string(s))
}

// table renders rows under headers without borders.
func (p *printer) table(headers []string, rows [][]string) {
	header := p.renderer.NewStyle().Bold(true).Foreground(style.Slate).PaddingRight(2)
	cell := p.renderer.NewStyle().PaddingRight(2)
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	p.line("%s", t.Render())
}

// field prints one "name: value" line of a detail view. Empty values are skipped.
func (p *printer) field(name, value string) {
	if value == "" {
		return
	}
	key := p.renderer.NewStyle().Bold(true).Width(fieldPadding).Render(name + ":")
	p.line("%s%s", key, value)
}

// section prints a heading followed by indented lines.
func (p *printer) section(name string, lines []string) {
	if len(lines) == 0 {
		return
	}
	p.line("%s", p.renderer.NewStyle().Bold(true).Render(name+":"))
	for _, l := range lines {
		p.line("  %s", l)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

func formatExecutable(exe domain.Executable) string {
	s := exe.Name
	if exe.Version != "" {
		s += " " + exe.Version
	}
	if exe.Path != "" {
		s += " (" + exe.Path + ")"
	}
	return s
}

func formatVCS(v domain.VCSState) string {
	if v.Kind == domain.VCSNone || v.Kind == "" {
		return string(domain.VCSNone)
	}
	s := string(v.Kind)
	if v.Revision != "" {
		s += " " + v.Revision
	}
	if v.Dirty {
		s += " (dirty)"
	}
	return s
}

func formatDependency(d domain.Dependency) string {
	return d.Path + "  " + short(d.Digest)
}

func formatWarning(w domain.Warning) string {
	parts := []string{string(w.Kind)}
	if w.Path != "" {
		parts = append(parts, w.Path)
	}
	s := strings.Join(parts, " ")
	if w.Detail != "" {
		s += ": " + w.Detail
	}
	return s
}
