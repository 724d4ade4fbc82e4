package fs

import (
	"crypto/sha256"
	"encoding/binary"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/zerr"
)

// FileDigest is the content digest of a file together with the stat it was taken from.
type FileDigest struct {
	Digest  string
	Size    int64
	ModTime time.Time
}

// Hasher computes sha256 content digests.
// Digests are memoized by an xxhash fingerprint of path, size and mtime, so a
// file referenced twice in one process is read once.
type Hasher struct {
	mu    sync.Mutex
	cache map[uint64]string
}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{cache: make(map[uint64]string)}
}

// Digest stats and hashes the file at path.
func (h *Hasher) Digest(path string) (FileDigest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileDigest{}, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
	}

	fd := FileDigest{Size: info.Size(), ModTime: info.ModTime()}
	key := fingerprint(path, fd.Size, fd.ModTime)

	h.mu.Lock()
	cached, ok := h.cache[key]
	h.mu.Unlock()
	if ok {
		fd.Digest = cached
		return fd, nil
	}

	digest, err := ComputeFileDigest(path)
	if err != nil {
		return FileDigest{}, err
	}

	h.mu.Lock()
	h.cache[key] = digest
	h.mu.Unlock()

	fd.Digest = digest
	return fd, nil
}

// ComputeFileDigest streams a file through sha256.
func ComputeFileDigest(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}

	return domain.FormatDigest(hasher.Sum(nil)), nil
}

func fingerprint(path string, size int64, modTime time.Time) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(path)
	_, _ = d.Write([]byte{0})

	var buf [16]byte
	//nolint:gosec // bit patterns only
	binary.LittleEndian.PutUint64(buf[:8], uint64(size))
	//nolint:gosec // bit patterns only
	binary.LittleEndian.PutUint64(buf[8:], uint64(modTime.UnixNano()))
	_, _ = d.Write(buf[:])

	return d.Sum64()
}
