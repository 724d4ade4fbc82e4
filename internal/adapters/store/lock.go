package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/zerr"
)

// lockOwner is written into the lock directory by the holder.
type lockOwner struct {
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"created_at"`
	Hostname  string    `json:"hostname,omitempty"`
}

// locker grants exclusive writer access to a project store directory.
// Goroutines of one process queue on a semaphore; processes exclude each
// other through an atomically created lock directory.
type locker struct {
	mu         sync.Mutex
	sems       map[string]chan struct{}
	staleAfter time.Duration
	poll       time.Duration
	hostname   string
}

func newLocker(staleAfter, poll time.Duration) *locker {
	return &locker{
		sems:       make(map[string]chan struct{}),
		staleAfter: staleAfter,
		poll:       poll,
		hostname:   hostnameOrUnknown(),
	}
}

func (l *locker) sem(dir string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sems[dir]
	if !ok {
		s = make(chan struct{}, 1)
		l.sems[dir] = s
	}
	return s
}

// acquire blocks until the lock of dir is held, ctx is done or timeout elapses.
func (l *locker) acquire(ctx context.Context, dir string, timeout time.Duration) (func(), error) {
	if timeout <= 0 {
		timeout = domain.DefaultLockTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sem := l.sem(dir)
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, l.lockedError(ctx, dir)
	}

	lockDir := filepath.Join(dir, domain.LockDirName)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		<-sem
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", dir)
	}

	for {
		err := os.Mkdir(lockDir, domain.DirPerm)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			<-sem
			return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", lockDir)
		}
		if l.breakStale(lockDir) {
			continue
		}
		select {
		case <-time.After(l.poll):
		case <-ctx.Done():
			<-sem
			return nil, l.lockedError(ctx, dir)
		}
	}

	owner := lockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC(),
		Hostname:  l.hostname,
	}
	if err := writeJSON(filepath.Join(lockDir, domain.LockOwnerFile), owner); err != nil {
		_ = os.RemoveAll(lockDir)
		<-sem
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = os.RemoveAll(lockDir)
			<-sem
		})
	}, nil
}

// breakStale removes a lock whose owner is gone or which is older than staleAfter.
func (l *locker) breakStale(lockDir string) bool {
	var owner lockOwner
	err := readJSON(filepath.Join(lockDir, domain.LockOwnerFile), &owner)
	if err != nil {
		// The owner may not have written its metadata yet.
		info, statErr := os.Stat(lockDir)
		if statErr != nil || time.Since(info.ModTime()) < l.staleAfter {
			return false
		}
		return os.RemoveAll(lockDir) == nil
	}

	stale := time.Since(owner.CreatedAt) > l.staleAfter ||
		(owner.Hostname == l.hostname && owner.PID != os.Getpid() && !processAlive(owner.PID))
	if !stale {
		return false
	}
	return os.RemoveAll(lockDir) == nil
}

func (l *locker) lockedError(ctx context.Context, dir string) error {
	err := zerr.With(zerr.Wrap(domain.ErrStoreLocked, "timed out waiting for project lock"), "path", dir)
	var owner lockOwner
	if readJSON(filepath.Join(dir, domain.LockDirName, domain.LockOwnerFile), &owner) == nil {
		err = zerr.With(zerr.With(err, "owner_pid", owner.PID), "owner_host", owner.Hostname)
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.DeadlineExceeded) {
		return zerr.Wrap(cause, err.Error())
	}
	return err
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
