// Package worker starts and supervises the detached background sync worker.
package worker

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	pollInterval    = 50 * time.Millisecond
	maxPollDuration = 5 * time.Second
)

var _ ports.WorkerSpawner = (*Spawner)(nil)

// Spawner implements ports.WorkerSpawner by re-executing the prov binary.
type Spawner struct {
	executablePath string
	args           func(project string) []string
}

// NewSpawner creates a spawner for the running executable.
func NewSpawner() (*Spawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to determine executable path")
	}
	return &Spawner{executablePath: exe, args: workerArgs}, nil
}

func workerArgs(project string) []string {
	return []string{"worker", "--project", project}
}

// Status reports whether a worker is alive for root.
func (s *Spawner) Status(root string) ports.WorkerStatus {
	return readStatus(root)
}

// Spawn starts the worker in its own session with output appended to
// .prov/worker.log. It is a no-op when a live worker exists.
func (s *Spawner) Spawn(ctx context.Context, root, project string) error {
	if root == "" {
		return zerr.New("root cannot be empty")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve absolute root path")
	}
	if s.Status(absRoot).Running {
		return nil
	}

	logPath := filepath.Join(absRoot, domain.DefaultWorkerLogPath())
	if mkdirErr := os.MkdirAll(filepath.Dir(logPath), domain.DirPerm); mkdirErr != nil {
		return zerr.Wrap(mkdirErr, "failed to create worker directory")
	}
	//nolint:gosec // G304: logPath is from root + domain constant, not user input
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, domain.PrivateFilePerm)
	if err != nil {
		return zerr.Wrap(err, "failed to open worker log")
	}

	//nolint:gosec // G204: executablePath is controlled, args are fixed literals
	cmd := exec.Command(s.executablePath, s.args(project)...)
	cmd.Dir = absRoot
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrWorkerSpawnFailed.Error()), "project", project)
	}

	go func() {
		_ = cmd.Wait()
		_ = logFile.Close()
	}()

	return s.waitForStartup(ctx, absRoot, cmd.Process.Pid)
}

// waitForStartup waits until the child has written its pid file.
func (s *Spawner) waitForStartup(ctx context.Context, root string, pid int) error {
	deadline := time.Now().Add(maxPollDuration)
	for time.Now().Before(deadline) {
		if status := readStatus(root); status.Running && status.PID == pid {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return zerr.With(zerr.Wrap(domain.ErrWorkerSpawnFailed, "worker did not start within timeout"), "pid", pid)
}
