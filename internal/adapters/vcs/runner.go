// Package vcs reads working copy state from Git, Mercurial and Subversion.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/zerr"
)

// Result is the outcome of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes name with args in dir. A non-zero exit is reported in
// Result, not as an error.
type Runner func(ctx context.Context, dir, name string, args ...string) (Result, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, dir, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // Fixed version control commands
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: strings.TrimSpace(stderr.String())}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, zerr.With(zerr.Wrap(err, domain.ErrVCSCommandFailed.Error()), "command", name)
	}
	return res, nil
}

// workingCopy holds what every implementation needs to run its tool.
type workingCopy struct {
	dir string
	run Runner
}

// output runs a command and treats any exit code outside ok as a failure.
func (w workingCopy) output(ctx context.Context, ok []int, name string, args ...string) (Result, error) {
	res, err := w.run(ctx, w.dir, name, args...)
	if err != nil {
		return res, err
	}
	if res.ExitCode == 0 {
		return res, nil
	}
	for _, code := range ok {
		if res.ExitCode == code {
			return res, nil
		}
	}
	return res, zerr.With(zerr.With(zerr.With(
		zerr.Wrap(domain.ErrVCSCommandFailed, name+" exited with an error"),
		"args", strings.Join(args, " ")),
		"exit_code", res.ExitCode),
		"stderr", res.Stderr)
}
