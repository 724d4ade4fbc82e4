package app_test

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/prov/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func newWorkerFixture(t *testing.T) (*fixture, *mocks.MockRemoteClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := mocks.NewMockRemoteClient(ctrl)
	remotes := mocks.NewMockRemoteFactory(ctrl)
	remotes.EXPECT().New(gomock.Any()).Return(client, nil).AnyTimes()
	client.EXPECT().EnsureProject(gomock.Any(), domain.ProjectInfo{Name: "neuro"}).Return(nil).AnyTimes()

	f := newFixture(t, remotes)
	f.cfg.Remote.URL = "https://records.example"
	f.cfg.Sync.IdleTimeout = time.Minute
	f.cfg.Sync.PollInterval = time.Second

	f.watcher.EXPECT().Start(gomock.Any(), f.cfg.ProjectRef().StoreDir()).Return(nil).AnyTimes()
	f.watcher.EXPECT().Events().Return(iter.Seq[ports.WatchEvent](func(func(ports.WatchEvent) bool) {})).AnyTimes()
	f.watcher.EXPECT().Stop().Return(nil).AnyTimes()
	return f, client
}

func TestWorker_DrainsQueueAndExitsWhenIdle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f, client := newWorkerFixture(t)
		seed(t, f)

		var pushed []string
		client.EXPECT().Push(gomock.Any(), "neuro", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, req domain.PushRequest) (domain.PushResult, error) {
				pushed = append(pushed, req.Label)
				return domain.PushResult{Created: true}, nil
			}).Times(2)

		began := time.Now()
		require.NoError(t, f.app.Worker(context.Background(), "neuro"))
		assert.GreaterOrEqual(t, time.Since(began), time.Minute)

		assert.Equal(t, []string{"baseline", "tuned"}, pushed)
		assert.Equal(t, domain.SyncSynced, f.get(t, "baseline").Sync.State)
		assert.Equal(t, domain.SyncSynced, f.get(t, "tuned").Sync.State)

		_, err := os.Stat(filepath.Join(f.root(), domain.DefaultWorkerPIDPath()))
		require.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestWorker_StopsOnRejectedCredentials(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f, client := newWorkerFixture(t)
		seed(t, f)

		client.EXPECT().Push(gomock.Any(), "neuro", gomock.Any()).
			Return(domain.PushResult{}, zerr.Wrap(domain.ErrAuth, "token rejected"))

		err := f.app.Worker(context.Background(), "neuro")
		require.ErrorIs(t, err, domain.ErrAuth)
		assert.Equal(t, domain.SyncFailed, f.get(t, "baseline").Sync.State)
		assert.Equal(t, domain.SyncQueued, f.get(t, "tuned").Sync.State)
	})
}

func TestWorker_ExitsWithContext(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f, _ := newWorkerFixture(t)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- f.app.Worker(ctx, "") }()
		synctest.Wait()
		cancel()
		require.NoError(t, <-done)
	})
}

func TestWorker_RejectsOtherProject(t *testing.T) {
	f, _ := newWorkerFixture(t)
	err := f.app.Worker(context.Background(), "other")
	require.ErrorIs(t, err, domain.ErrConfigInvalid)
}
