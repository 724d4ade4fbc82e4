package capture_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/adapters/fs"
	"go.trai.ch/prov/internal/adapters/store"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports/mocks"
	"go.trai.ch/prov/internal/engine/capture"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

var start = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	capture *capture.Capture
	store   *store.Store
	project domain.Project
	vcs     *mocks.MockVCSDetector
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	programs := mocks.NewMockProgramDetector(ctrl)
	programs.EXPECT().Detect(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.Executable{Name: "Python", Path: "/usr/bin/python3", Version: "3.12.1"}, nil).AnyTimes()

	f := &fixture{
		store:   store.New(),
		project: domain.Project{Name: "neuro", Root: t.TempDir()},
		vcs:     mocks.NewMockVCSDetector(ctrl),
		clock:   start,
	}
	f.capture = capture.New(f.store, fs.NewResolver(fs.NewHasher(), fs.NewWalker()), f.vcs, programs, log)
	f.capture.SetClockForTest(func() time.Time { return f.clock })
	f.capture.SetUserForTest("ada")

	next := 0
	f.capture.SetIDsForTest(func() (string, error) {
		next++
		return fmt.Sprintf("0190-%04d", next), nil
	})
	return f
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(f.project.Root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func (f *fixture) noVCS() {
	f.vcs.EXPECT().Detect(gomock.Any(), gomock.Any()).Return(noneVCS{}, nil).AnyTimes()
}

type noneVCS struct{}

func (noneVCS) Kind() domain.VCSKind                                  { return domain.VCSNone }
func (noneVCS) CurrentRevision(context.Context) (string, bool, error) { return "", false, nil }
func (noneVCS) IsDirty(context.Context) (bool, error)                 { return false, nil }
func (noneVCS) Diff(context.Context) (string, bool, error)            { return "", false, nil }

func TestBeginEnd(t *testing.T) {
	f := newFixture(t)
	f.noVCS()
	f.write(t, "main.py", "print('hi')")
	f.write(t, "data/input.csv", "a,b\n1,2\n")

	params := domain.NewParameterSet()
	params.Set("tstop", int64(1000))

	ctx := context.Background()
	h, err := f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{
		Executable:     domain.Executable{Name: "python3"},
		MainRef:        "main.py",
		Parameters:     params,
		DependencyRefs: []string{"data/*.csv"},
		Tags:           []string{"baseline"},
		Reason:         "first try",
		ScriptArgs:     []string{"--fast"},
	})
	require.NoError(t, err)
	assert.Equal(t, "20240301-093000", h.Label)

	rec, err := f.store.Get(ctx, f.project, h.Label)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseRunning, rec.Phase)
	assert.Equal(t, domain.SyncLocalOnly, rec.Sync.State)
	assert.Equal(t, "ada", rec.User)
	assert.Equal(t, "3.12.1", rec.Executable.Version)
	assert.Equal(t, domain.VCSNone, rec.VCS.Kind)
	require.Len(t, rec.Dependencies, 2)
	assert.Equal(t, "main.py", rec.Dependencies[0].Path)
	assert.Equal(t, "data/input.csv", rec.Dependencies[1].Path)
	assert.Empty(t, rec.Warnings)

	f.write(t, "out/result.txt", "42")
	f.clock = start.Add(90 * time.Second)

	ended, err := f.capture.EndRecord(ctx, h, capture.EndOptions{
		Outputs: []string{"out/result.txt", "out/missing.txt"},
		Outcome: "converged",
		Output:  "iteration 1\niteration 2\n",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseFinished, ended.Phase)
	assert.Equal(t, "iteration 1\niteration 2\n", ended.StdoutStderr)
	assert.Equal(t, domain.SyncQueued, ended.Sync.State)
	assert.Equal(t, 90*time.Second, ended.Duration)
	assert.Equal(t, domain.Outcome{ExitStatus: 0, Text: "converged"}, ended.Outcome)
	require.Len(t, ended.Outputs, 2)
	assert.True(t, domain.ValidDigest(ended.Outputs[0].Digest))
	assert.Empty(t, ended.Outputs[1].Digest)

	_, err = f.capture.EndRecord(ctx, h, capture.EndOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestEndRecord_NonZeroExit(t *testing.T) {
	f := newFixture(t)
	f.noVCS()

	ctx := context.Background()
	h, err := f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{Label: "crash"})
	require.NoError(t, err)

	rec, err := f.capture.EndRecord(ctx, h, capture.EndOptions{ExitStatus: 3, Duration: time.Second})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseFailed, rec.Phase)
	assert.Equal(t, 3, rec.Outcome.ExitStatus)
	assert.Equal(t, time.Second, rec.Duration)
	assert.Equal(t, domain.SyncQueued, rec.Sync.State)
}

func TestBeginRecord_DuplicateLabel(t *testing.T) {
	f := newFixture(t)
	f.noVCS()
	ctx := context.Background()

	first, err := f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{Label: "run"})
	require.NoError(t, err)

	_, err = f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{Label: "run"})
	require.ErrorIs(t, err, domain.ErrDuplicateLabel)

	second, err := f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{Label: "run", Overwrite: true})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	byLabel, err := f.store.Get(ctx, f.project, "run")
	require.NoError(t, err)
	assert.Equal(t, second.ID, byLabel.ID)

	byID, err := f.store.Get(ctx, f.project, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, byID.ID)
}

func TestBeginRecord_InvalidLabel(t *testing.T) {
	f := newFixture(t)

	_, err := f.capture.BeginRecord(context.Background(), f.project, capture.BeginOptions{Label: "a/b"})
	require.ErrorIs(t, err, domain.ErrInvalidLabel)
}

func TestBeginRecord_MissingDependency(t *testing.T) {
	f := newFixture(t)
	f.noVCS()

	_, err := f.capture.BeginRecord(context.Background(), f.project, capture.BeginOptions{
		Label:          "run",
		DependencyRefs: []string{"nope.csv"},
	})
	require.ErrorIs(t, err, domain.ErrInputNotFound)
}

func TestBeginRecord_DirtyWorkingCopy(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	f.write(t, "main.py", "print('hi')")

	vc := mocks.NewMockVersionControl(ctrl)
	vc.EXPECT().Kind().Return(domain.VCSGit).AnyTimes()
	vc.EXPECT().CurrentRevision(gomock.Any()).Return("a1b2c3", true, nil)
	vc.EXPECT().IsDirty(gomock.Any()).Return(true, nil)
	vc.EXPECT().Diff(gomock.Any()).Return("--- a/main.py\n+++ b/main.py\n", true, nil)
	f.vcs.EXPECT().Detect(gomock.Any(), f.project.Root).Return(vc, nil)

	ctx := context.Background()
	h, err := f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{Label: "run", MainRef: "main.py"})
	require.NoError(t, err)

	rec, err := f.store.Get(ctx, f.project, h.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VCSState{
		Kind:     domain.VCSGit,
		Revision: "a1b2c3",
		Dirty:    true,
		Diff:     "--- a/main.py\n+++ b/main.py\n",
	}, rec.VCS)
	assert.Equal(t, "a1b2c3", rec.Dependencies[0].Revision)
	require.Len(t, rec.Warnings, 1)
	assert.Equal(t, domain.WarnDirtyWorkingCopy, rec.Warnings[0].Kind)
}

func TestBeginRecord_VCSFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	f.vcs.EXPECT().Detect(gomock.Any(), gomock.Any()).Return(nil, errors.New("git exploded"))

	ctx := context.Background()
	h, err := f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{Label: "run"})
	require.NoError(t, err)

	rec, err := f.store.Get(ctx, f.project, h.ID)
	require.NoError(t, err)
	require.Len(t, rec.Warnings, 1)
	assert.Equal(t, domain.WarnVersionControl, rec.Warnings[0].Kind)
	assert.Equal(t, "git exploded", rec.Warnings[0].Detail)
}

func TestBeginRecord_ChangedSinceLastUse(t *testing.T) {
	f := newFixture(t)
	f.noVCS()
	ctx := context.Background()
	f.write(t, "input.csv", "v1")

	first, err := f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{Label: "one", DependencyRefs: []string{"input.csv"}})
	require.NoError(t, err)
	same, err := f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{Label: "two", DependencyRefs: []string{"input.csv"}})
	require.NoError(t, err)

	firstRec, err := f.store.Get(ctx, f.project, first.ID)
	require.NoError(t, err)
	sameRec, err := f.store.Get(ctx, f.project, same.ID)
	require.NoError(t, err)
	assert.Equal(t, firstRec.Dependencies[0].Digest, sameRec.Dependencies[0].Digest)
	assert.Empty(t, sameRec.Warnings)

	f.write(t, "input.csv", "v2")
	changed, err := f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{Label: "three", DependencyRefs: []string{"input.csv"}})
	require.NoError(t, err)

	rec, err := f.store.Get(ctx, f.project, changed.ID)
	require.NoError(t, err)
	require.Len(t, rec.Warnings, 1)
	assert.Equal(t, domain.WarnChangedSinceLastUse, rec.Warnings[0].Kind)
	assert.Equal(t, "input.csv", rec.Warnings[0].Path)
	assert.Equal(t, "was "+firstRec.Dependencies[0].Digest, rec.Warnings[0].Detail)
}

func TestBeginRecord_Snapshot(t *testing.T) {
	f := newFixture(t)
	f.noVCS()
	f.write(t, "input.csv", "payload")

	ctx := context.Background()
	h, err := f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{
		Label:          "run",
		DependencyRefs: []string{"input.csv"},
		Snapshot:       true,
	})
	require.NoError(t, err)

	rec, err := f.store.Get(ctx, f.project, h.ID)
	require.NoError(t, err)

	blob := filepath.Join(f.project.StoreDir(), domain.BlobsDirName, domain.DigestHex(rec.Dependencies[0].Digest))
	content, err := os.ReadFile(blob)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))

	bodies, err := f.store.PendingDependencies(ctx, f.project, rec.DependencyDigests())
	require.NoError(t, err)
	require.Len(t, bodies, 1)
	assert.Equal(t, []byte("payload"), bodies[0].Content)
}

func TestBeginRecord_KnownExecutableSkipsDetection(t *testing.T) {
	f := newFixture(t)
	f.noVCS()
	ctx := context.Background()

	exe := domain.Executable{Name: "NEURON", Path: "/opt/nrn/bin/nrniv", Version: "8.2"}
	h, err := f.capture.BeginRecord(ctx, f.project, capture.BeginOptions{Label: "run", Executable: exe})
	require.NoError(t, err)

	rec, err := f.store.Get(ctx, f.project, h.ID)
	require.NoError(t, err)
	assert.Equal(t, exe, rec.Executable)
}

func TestBeginRecord_UnknownProgram(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	programs := mocks.NewMockProgramDetector(ctrl)
	programs.EXPECT().Detect(gomock.Any(), "", "model.jl").
		Return(domain.Executable{}, zerr.Wrap(domain.ErrUnknownProgram, "extension not recognized"))

	s := store.New()
	c := capture.New(s, fs.NewResolver(fs.NewHasher(), fs.NewWalker()), mocks.NewMockVCSDetector(ctrl), programs, log)
	project := domain.Project{Name: "neuro", Root: t.TempDir()}
	require.NoError(t, os.WriteFile(filepath.Join(project.Root, "model.jl"), []byte("x"), 0o600))

	_, err := c.BeginRecord(context.Background(), project, capture.BeginOptions{Label: "run", MainRef: "model.jl"})
	require.ErrorIs(t, err, domain.ErrUnknownProgram)

	_, err = s.Get(context.Background(), project, "run")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
