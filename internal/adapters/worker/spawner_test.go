package worker_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/adapters/worker"
	"go.trai.ch/prov/internal/core/domain"
)

func TestWritePID(t *testing.T) {
	root := t.TempDir()
	spawner := worker.NewSpawnerForTest("true")

	assert.False(t, spawner.Status(root).Running)

	release, err := worker.WritePID(root, "neuro")
	require.NoError(t, err)

	status := spawner.Status(root)
	assert.True(t, status.Running)
	assert.Equal(t, os.Getpid(), status.PID)
	assert.False(t, status.StartedAt.IsZero())

	release()
	assert.NoFileExists(t, filepath.Join(root, domain.DefaultWorkerPIDPath()))
}

func TestWritePID_ReplacesDeadWorker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, domain.ProvDirName), 0o750))
	data, err := json.Marshal(map[string]any{"pid": 1<<22 - 1, "project": "neuro"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, domain.DefaultWorkerPIDPath()), data, 0o600))

	spawner := worker.NewSpawnerForTest("true")
	assert.False(t, spawner.Status(root).Running)

	release, err := worker.WritePID(root, "neuro")
	require.NoError(t, err)
	defer release()
	assert.Equal(t, os.Getpid(), spawner.Status(root).PID)
}

func TestSpawner_Spawn(t *testing.T) {
	root := t.TempDir()
	script := `echo started; printf '{"pid": %d, "project": "neuro"}' $$ > .prov/worker.pid; sleep 2`
	spawner := worker.NewSpawnerForTest("/bin/sh", "-c", script)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, spawner.Spawn(ctx, root, "neuro"))

	status := spawner.Status(root)
	require.True(t, status.Running)

	// A live worker makes the second spawn a no-op.
	require.NoError(t, spawner.Spawn(ctx, root, "neuro"))
	assert.Equal(t, status.PID, spawner.Status(root).PID)

	proc, err := os.FindProcess(status.PID)
	require.NoError(t, err)
	_ = proc.Kill()

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(filepath.Join(root, domain.DefaultWorkerLogPath()))
		return err == nil && string(data) == "started\n"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSpawner_NeverStarts(t *testing.T) {
	root := t.TempDir()
	spawner := worker.NewSpawnerForTest("/bin/sh", "-c", "exit 0")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := spawner.Spawn(ctx, root, "neuro")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
