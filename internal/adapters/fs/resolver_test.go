package fs_test

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/adapters/fs"
	"go.trai.ch/prov/internal/core/domain"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func digestOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return domain.FormatDigest(sum[:])
}

func newResolver() *fs.Resolver {
	return fs.NewResolver(fs.NewHasher(), fs.NewWalker())
}

func TestResolver_Resolve_DeclaredOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "model.py", "print('hi')")
	writeFile(t, root, "data/b.csv", "b")
	writeFile(t, root, "data/a.csv", "a")

	deps, err := newResolver().Resolve(context.Background(), root, []string{"model.py", "data/*.csv", "data/a.csv"})
	require.NoError(t, err)

	require.Len(t, deps, 3)
	assert.Equal(t, "model.py", deps[0].Path)
	assert.Equal(t, "data/a.csv", deps[1].Path)
	assert.Equal(t, "data/b.csv", deps[2].Path)
	assert.Equal(t, digestOf("print('hi')"), deps[0].Digest)
	assert.Equal(t, int64(1), deps[1].Size)
	assert.False(t, deps[1].ModTime.IsZero())
}

func TestResolver_Resolve_Directory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "inputs/x.txt", "x")
	writeFile(t, root, "inputs/nested/y.txt", "y")
	writeFile(t, root, "inputs/.git/HEAD", "ref")

	deps, err := newResolver().Resolve(context.Background(), root, []string{"inputs"})
	require.NoError(t, err)

	paths := make([]string, len(deps))
	for i, d := range deps {
		paths[i] = d.Path
	}
	assert.Equal(t, []string{"inputs/nested/y.txt", "inputs/x.txt"}, paths)
}

func TestResolver_Resolve_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "same")
	writeFile(t, root, "b.txt", "same")

	r := newResolver()
	first, err := r.Resolve(context.Background(), root, []string{"*.txt"})
	require.NoError(t, err)
	second, err := fs.NewResolver(fs.NewHasher(), fs.NewWalker()).Resolve(context.Background(), root, []string{"*.txt"})
	require.NoError(t, err)

	assert.Equal(t, first[0].Digest, first[1].Digest)
	assert.Equal(t, first[0].Digest, second[0].Digest)
}

func TestResolver_Resolve_NotFound(t *testing.T) {
	root := t.TempDir()
	_, err := newResolver().Resolve(context.Background(), root, []string{"missing/*.dat"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInputNotFound)
}

func TestResolver_Resolve_GlobError(t *testing.T) {
	root := t.TempDir()
	_, err := newResolver().Resolve(context.Background(), root, []string{"["})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to glob path")
}

func TestResolver_Resolve_Canceled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newResolver().Resolve(ctx, root, []string{"a.txt"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolver_Describe(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "out/result.dat", "42")

	r := newResolver()
	dep, err := r.Describe(context.Background(), root, "out/result.dat")
	require.NoError(t, err)
	assert.Equal(t, "out/result.dat", dep.Path)
	assert.Equal(t, digestOf("42"), dep.Digest)

	missing, err := r.Describe(context.Background(), root, "out/none.dat")
	require.NoError(t, err)
	assert.Equal(t, "out/none.dat", missing.Path)
	assert.Empty(t, missing.Digest)
}

func TestHasher_CacheInvalidatesOnChange(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "f.txt", "one")

	h := fs.NewHasher()
	first, err := h.Digest(path)
	require.NoError(t, err)
	assert.Equal(t, digestOf("one"), first.Digest)

	require.NoError(t, os.WriteFile(path, []byte("two!"), 0o600))
	later := first.ModTime.Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	second, err := h.Digest(path)
	require.NoError(t, err)
	assert.Equal(t, digestOf("two!"), second.Digest)
}

func TestComputeFileDigest_Missing(t *testing.T) {
	_, err := fs.ComputeFileDigest(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}
