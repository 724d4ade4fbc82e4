package worker

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
)

// pidInfo is the content of .prov/worker.pid.
type pidInfo struct {
	PID       int       `json:"pid"`
	Project   string    `json:"project"`
	StartedAt time.Time `json:"started_at"`
}

func pidPath(root string) string {
	return filepath.Join(root, domain.DefaultWorkerPIDPath())
}

// WritePID records the calling process as the worker of root. It fails when
// another live worker already holds the pid file.
func WritePID(root, project string) (release func(), err error) {
	path := pidPath(root)
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", path)
	}
	if status := readStatus(root); status.Running && status.PID != os.Getpid() {
		return nil, zerr.With(zerr.Wrap(domain.ErrWorkerSpawnFailed, "another worker is running"), "pid", status.PID)
	}

	data, err := json.Marshal(pidInfo{PID: os.Getpid(), Project: project, StartedAt: time.Now().UTC()})
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}
	if err := os.WriteFile(path, data, domain.PrivateFilePerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}
	return func() {
		// Leave the file alone if a newer worker took over.
		if status := readStatus(root); status.PID == os.Getpid() {
			_ = os.Remove(path)
		}
	}, nil
}

// readStatus reports the worker recorded in the pid file and whether it is alive.
func readStatus(root string) ports.WorkerStatus {
	data, err := os.ReadFile(pidPath(root)) //nolint:gosec // path is root + fixed name
	if err != nil {
		return ports.WorkerStatus{}
	}
	var info pidInfo
	if json.Unmarshal(data, &info) != nil || info.PID <= 0 {
		return ports.WorkerStatus{}
	}
	return ports.WorkerStatus{
		Running:   processAlive(info.PID),
		PID:       info.PID,
		StartedAt: info.StartedAt,
	}
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM) || errors.Is(err, fs.ErrPermission)
}
