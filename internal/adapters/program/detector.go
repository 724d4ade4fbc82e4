package program

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
)

// versionTimeout bounds the `--version` probe.
const versionTimeout = 5 * time.Second

var versionPattern = regexp.MustCompile(`\b(\d[\.\d]*([a-z]*\d)*)\b`)

var _ ports.ProgramDetector = (*Detector)(nil)

// Prober runs an executable with args and returns its combined output.
type Prober func(ctx context.Context, path string, args ...string) ([]byte, error)

// ExecProber runs the probe with os/exec.
func ExecProber(ctx context.Context, path string, args ...string) ([]byte, error) {
	//nolint:gosec // the path is the executable the user asked to run
	return exec.CommandContext(ctx, path, args...).CombinedOutput()
}

// Detector implements ports.ProgramDetector.
type Detector struct {
	registry *Registry
	probe    Prober
	lookPath func(string) (string, error)
}

// NewDetector creates a detector. A nil registry uses DefaultRegistry and a
// nil probe uses ExecProber.
func NewDetector(registry *Registry, probe Prober) *Detector {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if probe == nil {
		probe = ExecProber
	}
	return &Detector{registry: registry, probe: probe, lookPath: exec.LookPath}
}

// Detect resolves the executable for name, or the program implied by
// script's extension when name is empty.
func (d *Detector) Detect(ctx context.Context, name, script string) (domain.Executable, error) {
	invoked := name
	display := ""
	switch {
	case name != "":
		display = filepath.Base(name)
		if p, ok := d.registry.ByExecutable(name); ok {
			display = p.Name
		}
	case script != "":
		p, ok := d.registry.ByScript(script)
		if !ok {
			return domain.Executable{}, zerr.With(zerr.Wrap(domain.ErrUnknownProgram, "extension not recognized"), "script", script)
		}
		display = p.Name
		invoked = p.Executables[0]
	default:
		return domain.Executable{}, domain.ErrMissingCommand
	}

	exe := domain.Executable{Name: display, Path: d.resolvePath(invoked)}
	if exe.Path != "" {
		exe.Version = d.version(ctx, exe.Path)
	}
	return exe, nil
}

// resolvePath returns an absolute path for name, or "" when it cannot be found.
func (d *Detector) resolvePath(name string) string {
	if filepath.IsAbs(name) || filepath.Base(name) != name {
		abs, err := filepath.Abs(name)
		if err != nil {
			return ""
		}
		if _, err := os.Stat(abs); err != nil {
			return ""
		}
		return abs
	}
	path, err := d.lookPath(name)
	if err != nil {
		return ""
	}
	return path
}

// version sniffs the version from `<path> --version`. Failures yield "".
func (d *Detector) version(ctx context.Context, path string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	// Many tools print their version and exit non-zero, so output is parsed regardless.
	out, _ := d.probe(ctx, path, "--version")
	return ParseVersion(string(out))
}

// ParseVersion extracts the first version-like token from s.
func ParseVersion(s string) string {
	return versionPattern.FindString(s)
}
