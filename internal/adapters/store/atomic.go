package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/zerr"
)

// writeFileAtomic replaces path with data. The content is written to a temp
// file in the same directory, synced and renamed into place.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}
	if err = tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", path)
	}

	syncDir(dir)
	return nil
}

// syncDir flushes a directory entry after a rename. Not all platforms support it.
func syncDir(dir string) {
	d, err := os.Open(dir) //nolint:gosec // Directory is derived from the store root
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error()), "path", path)
	}
	return writeFileAtomic(path, data, domain.FilePerm)
}

// readJSON decodes path into v. Errors from os.ReadFile are returned
// wrapped so callers can still test for fs.ErrNotExist.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // Path is derived from the store root
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error()), "path", path)
	}
	return nil
}
