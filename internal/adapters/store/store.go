// Package store implements the local record store on the file system.
//
// Each project owns a directory below .prov/store holding an index, one JSON
// document per record, dependency snapshots and the writer lock.
package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"go.trai.ch/prov/internal/core/domain"
	"go.trai.ch/prov/internal/core/ports"
	"go.trai.ch/zerr"
)

const defaultPollInterval = 10 * time.Millisecond

var _ ports.RecordStore = (*Store)(nil)

// Store implements ports.RecordStore.
type Store struct {
	locks *locker
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	staleAfter time.Duration
	poll       time.Duration
}

// WithStaleLockAfter sets the age after which a foreign lock is broken.
func WithStaleLockAfter(d time.Duration) Option {
	return func(o *storeOptions) { o.staleAfter = d }
}

// WithLockPollInterval sets how often a contended lock is retried.
func WithLockPollInterval(d time.Duration) Option {
	return func(o *storeOptions) { o.poll = d }
}

// New creates a Store.
func New(opts ...Option) *Store {
	o := storeOptions{
		staleAfter: domain.DefaultStaleLockAfter,
		poll:       defaultPollInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{locks: newLocker(o.staleAfter, o.poll)}
}

func recordPath(dir, id string) string {
	return filepath.Join(dir, domain.RecordsDirName, id+".json")
}

func blobPath(dir, digest string) string {
	return filepath.Join(dir, domain.BlobsDirName, domain.DigestHex(digest))
}

// mutate runs fn on the current index under the project lock and saves the
// index when fn succeeds.
func (s *Store) mutate(ctx context.Context, p domain.Project, fn func(dir string, ix *index) error) error {
	if err := domain.ValidateProjectName(p.Name); err != nil {
		return err
	}
	dir := p.StoreDir()

	release, err := s.locks.acquire(ctx, dir, p.LockTimeout)
	if err != nil {
		return err
	}
	defer release()

	ix, err := loadIndex(dir, p.Name)
	if err != nil {
		return err
	}
	if err := fn(dir, ix); err != nil {
		return err
	}
	return ix.save(dir)
}

func readRecord(dir, id string) (*domain.Record, error) {
	var rec domain.Record
	if err := readJSON(recordPath(dir, id), &rec); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrNotFound, "record file missing"), "id", id)
		}
		return nil, err
	}
	return &rec, nil
}

func writeRecord(dir string, rec *domain.Record) error {
	return writeJSON(recordPath(dir, rec.ID), rec)
}

func notFound(labelOrID string) error {
	return zerr.With(zerr.Wrap(domain.ErrNotFound, "no record with this label or id"), "record", labelOrID)
}

func lookup(dir string, ix *index, labelOrID string) (*domain.Record, error) {
	id, ok := ix.resolve(labelOrID)
	if !ok {
		return nil, notFound(labelOrID)
	}
	return readRecord(dir, id)
}

// Put stores a new record.
func (s *Store) Put(ctx context.Context, p domain.Project, rec *domain.Record, overwrite bool) error {
	if rec.ID == "" {
		return zerr.Wrap(domain.ErrStoreWriteFailed, "record id is required")
	}
	if err := domain.ValidateLabel(rec.Label); err != nil {
		return err
	}

	return s.mutate(ctx, p, func(dir string, ix *index) error {
		if ix.position(rec.ID) >= 0 {
			return zerr.With(zerr.Wrap(domain.ErrRecordExists, "record already stored"), "id", rec.ID)
		}
		if holder, taken := ix.Labels[rec.Label]; taken && !overwrite {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrDuplicateLabel, "label is taken"), "label", rec.Label), "holder", holder)
		}
		if rec.Sync.State == "" {
			rec.Sync.State = domain.SyncLocalOnly
		}
		if rec.Project == "" {
			rec.Project = p.Name
		}

		if err := writeRecord(dir, rec); err != nil {
			return err
		}
		ix.Labels[rec.Label] = rec.ID
		ix.setSummary(rec.Summary())
		ix.retain(rec)
		return nil
	})
}

// Get resolves labelOrID without taking the lock.
func (s *Store) Get(_ context.Context, p domain.Project, labelOrID string) (*domain.Record, error) {
	dir := p.StoreDir()
	ix, err := loadIndex(dir, p.Name)
	if err != nil {
		return nil, err
	}
	return lookup(dir, ix, labelOrID)
}

// MostRecent returns the last created record still present on disk.
func (s *Store) MostRecent(_ context.Context, p domain.Project) (*domain.Record, error) {
	dir := p.StoreDir()
	ix, err := loadIndex(dir, p.Name)
	if err != nil {
		return nil, err
	}
	for i := len(ix.Records) - 1; i >= 0; i-- {
		rec, err := readRecord(dir, ix.Records[i].ID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		return rec, err
	}
	return nil, zerr.With(zerr.Wrap(domain.ErrNotFound, "project has no records"), "project", p.Name)
}

// List yields records matching filter in creation order.
// Records deleted after the index was read are skipped.
func (s *Store) List(ctx context.Context, p domain.Project, filter domain.Filter) iter.Seq2[*domain.Record, error] {
	return func(yield func(*domain.Record, error) bool) {
		if err := filter.Validate(); err != nil {
			yield(nil, err)
			return
		}
		dir := p.StoreDir()
		ix, err := loadIndex(dir, p.Name)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, sum := range ix.Records {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !filter.Match(sum) {
				continue
			}
			rec, err := readRecord(dir, sum.ID)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if !yield(rec, err) {
				return
			}
		}
	}
}

// Update replaces the content of a content-mutable record. Sync metadata
// and label are kept from the stored record.
func (s *Store) Update(ctx context.Context, p domain.Project, rec *domain.Record) error {
	return s.mutate(ctx, p, func(dir string, ix *index) error {
		if ix.position(rec.ID) < 0 {
			return notFound(rec.ID)
		}
		stored, err := readRecord(dir, rec.ID)
		if err != nil {
			return err
		}
		if !stored.ContentMutable() {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidState, "record content is frozen"), "id", rec.ID), "state", string(stored.Sync.State))
		}
		if rec.Label != stored.Label {
			return zerr.With(zerr.Wrap(domain.ErrInvalidState, "use rename to change a label"), "id", rec.ID)
		}

		rec.Sync = stored.Sync
		if err := writeRecord(dir, rec); err != nil {
			return err
		}
		ix.release(stored)
		ix.setSummary(rec.Summary())
		ix.retain(rec)
		return nil
	})
}

// UpdateSync applies fn to the sync metadata of record id.
func (s *Store) UpdateSync(ctx context.Context, p domain.Project, id string, fn func(*domain.SyncMeta) error) (*domain.Record, error) {
	var updated *domain.Record
	err := s.mutate(ctx, p, func(dir string, ix *index) error {
		if ix.position(id) < 0 {
			return notFound(id)
		}
		rec, err := readRecord(dir, id)
		if err != nil {
			return err
		}

		from := rec.Sync.State
		meta := rec.Sync
		if err := fn(&meta); err != nil {
			return err
		}
		if !meta.State.Valid() || !from.CanTransition(meta.State) {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidState, "sync transition not allowed"), "from", string(from)), "to", string(meta.State))
		}

		rec.Sync = meta
		if err := writeRecord(dir, rec); err != nil {
			return err
		}
		ix.setSummary(rec.Summary())
		updated = rec
		return nil
	})
	return updated, err
}

// Delete removes a record. A record with a push in flight cannot be deleted.
func (s *Store) Delete(ctx context.Context, p domain.Project, labelOrID string) error {
	var orphans []string
	err := s.mutate(ctx, p, func(dir string, ix *index) error {
		rec, err := lookup(dir, ix, labelOrID)
		if err != nil {
			return err
		}
		dropped, err := removeFromIndex(ix, rec)
		if err != nil {
			return err
		}
		orphans = append(orphans, recordPath(dir, rec.ID))
		for _, digest := range dropped {
			orphans = append(orphans, blobPath(dir, digest))
		}
		return nil
	})
	if err != nil {
		return err
	}
	removeFiles(orphans)
	return nil
}

// DeleteByTag removes every record carrying tag. Records with a push in
// flight are left in place.
func (s *Store) DeleteByTag(ctx context.Context, p domain.Project, tag string) (int, error) {
	var orphans []string
	count := 0
	err := s.mutate(ctx, p, func(dir string, ix *index) error {
		var ids []string
		for _, sum := range ix.Records {
			if slices.Contains(sum.Tags, tag) && sum.State != domain.SyncPushing {
				ids = append(ids, sum.ID)
			}
		}
		for _, id := range ids {
			rec, err := readRecord(dir, id)
			if errors.Is(err, domain.ErrNotFound) {
				ix.removeSummary(id)
				continue
			}
			if err != nil {
				return err
			}
			dropped, err := removeFromIndex(ix, rec)
			if err != nil {
				return err
			}
			count++
			orphans = append(orphans, recordPath(dir, id))
			for _, digest := range dropped {
				orphans = append(orphans, blobPath(dir, digest))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	removeFiles(orphans)
	return count, nil
}

func removeFromIndex(ix *index, rec *domain.Record) ([]string, error) {
	if rec.Sync.State == domain.SyncPushing {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidState, "record is being pushed"), "id", rec.ID)
	}
	ix.removeSummary(rec.ID)
	ix.unlabel(rec.Label, rec.ID)
	return ix.release(rec), nil
}

// removeFiles deletes files after the index no longer references them.
func removeFiles(paths []string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

// Rename reassigns the label of a record that has not reached the remote.
func (s *Store) Rename(ctx context.Context, p domain.Project, labelOrID, newLabel string, overwrite bool) (*domain.Record, error) {
	if err := domain.ValidateLabel(newLabel); err != nil {
		return nil, err
	}

	var renamed *domain.Record
	err := s.mutate(ctx, p, func(dir string, ix *index) error {
		rec, err := lookup(dir, ix, labelOrID)
		if err != nil {
			return err
		}
		if rec.Sync.State == domain.SyncSynced || rec.Sync.State == domain.SyncPushing {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidState, "record label is frozen"), "id", rec.ID), "state", string(rec.Sync.State))
		}
		if rec.Label == newLabel {
			renamed = rec
			return nil
		}
		if holder, taken := ix.Labels[newLabel]; taken && holder != rec.ID && !overwrite {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrDuplicateLabel, "label is taken"), "label", newLabel), "holder", holder)
		}

		ix.unlabel(rec.Label, rec.ID)
		rec.Label = newLabel
		ix.Labels[newLabel] = rec.ID

		rec.Sync.IdempotencyKey = ""
		if rec.Sync.State == domain.SyncConflict {
			rec.Sync.State = domain.SyncQueued
			rec.Sync.Retryable = false
			rec.Sync.RetryCount = 0
			rec.Sync.LastError = ""
			rec.Sync.Rejection = nil
			rec.Sync.NextAttemptAt = time.Time{}
		}

		if err := writeRecord(dir, rec); err != nil {
			return err
		}
		ix.setSummary(rec.Summary())
		renamed = rec
		return nil
	})
	return renamed, err
}

// Retag adds and removes tags on a content-mutable record.
func (s *Store) Retag(ctx context.Context, p domain.Project, labelOrID string, add, remove []string) (*domain.Record, error) {
	var tagged *domain.Record
	err := s.mutate(ctx, p, func(dir string, ix *index) error {
		rec, err := lookup(dir, ix, labelOrID)
		if err != nil {
			return err
		}
		if !rec.ContentMutable() {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidState, "record content is frozen"), "id", rec.ID), "state", string(rec.Sync.State))
		}
		for _, tag := range remove {
			rec.RemoveTag(tag)
		}
		for _, tag := range add {
			rec.AddTag(tag)
		}
		if err := writeRecord(dir, rec); err != nil {
			return err
		}
		ix.setSummary(rec.Summary())
		tagged = rec
		return nil
	})
	return tagged, err
}

// LastDigest returns the digest stored for path by the most recent record using it.
func (s *Store) LastDigest(_ context.Context, p domain.Project, path string) (string, bool, error) {
	ix, err := loadIndex(p.StoreDir(), p.Name)
	if err != nil {
		return "", false, err
	}
	digest, ok := ix.LastDigests[path]
	return digest, ok, nil
}

// PendingDependencies returns the dependency bodies the remote does not hold yet,
// in the order of digests. Snapshot content is attached when present.
func (s *Store) PendingDependencies(_ context.Context, p domain.Project, digests []string) ([]domain.DependencyBody, error) {
	dir := p.StoreDir()
	ix, err := loadIndex(dir, p.Name)
	if err != nil {
		return nil, err
	}

	var bodies []domain.DependencyBody
	for _, digest := range digests {
		entry, ok := ix.Deps[digest]
		if !ok || entry.Remote {
			continue
		}
		body := domain.DependencyBody{
			Digest:   entry.Digest,
			Path:     entry.Path,
			Size:     entry.Size,
			Revision: entry.Revision,
		}
		content, err := os.ReadFile(blobPath(dir, digest)) //nolint:gosec // Path is derived from the digest
		switch {
		case err == nil:
			body.Content = content
		case !errors.Is(err, fs.ErrNotExist):
			return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "digest", digest)
		}
		bodies = append(bodies, body)
	}
	return bodies, nil
}

// MarkDependenciesRemote flags digests as held by the remote.
func (s *Store) MarkDependenciesRemote(ctx context.Context, p domain.Project, digests []string) error {
	if len(digests) == 0 {
		return nil
	}
	return s.mutate(ctx, p, func(_ string, ix *index) error {
		for _, digest := range digests {
			if entry, ok := ix.Deps[digest]; ok {
				entry.Remote = true
			}
		}
		return nil
	})
}

// Snapshot copies src into the blob area, failing with domain.ErrDigestMismatch
// when the content no longer matches dep.Digest.
func (s *Store) Snapshot(ctx context.Context, p domain.Project, dep domain.Dependency, src string) error {
	if !domain.ValidDigest(dep.Digest) {
		return zerr.With(zerr.Wrap(domain.ErrDigestMismatch, "malformed digest"), "digest", dep.Digest)
	}
	if err := domain.ValidateProjectName(p.Name); err != nil {
		return err
	}
	dir := p.StoreDir()
	target := blobPath(dir, dep.Digest)
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	release, err := s.locks.acquire(ctx, dir, p.LockTimeout)
	if err != nil {
		return err
	}
	defer release()

	return copyVerified(src, target, dep.Digest)
}

func copyVerified(src, target, digest string) (err error) {
	in, err := os.Open(src) //nolint:gosec // Source is a declared dependency
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", src)
	}
	defer in.Close() //nolint:errcheck // Read-only file

	blobDir := filepath.Dir(target)
	if err := os.MkdirAll(blobDir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreCreateFailed.Error()), "path", blobDir)
	}
	tmp, err := os.CreateTemp(blobDir, ".blob-*.tmp")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", target)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	hasher := sha256.New()
	if _, err = io.Copy(io.MultiWriter(tmp, hasher), in); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", target)
	}
	if err = tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", target)
	}
	if got := domain.FormatDigest(hasher.Sum(nil)); got != digest {
		err = zerr.With(zerr.With(zerr.Wrap(domain.ErrDigestMismatch, "file changed since it was hashed"), "path", src), "digest", got)
		return err
	}
	if err = os.Chmod(tmpName, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", target)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "path", target)
	}
	return nil
}

// Projects lists project stores below root in name order.
func (s *Store) Projects(_ context.Context, root string) ([]string, error) {
	base := filepath.Join(root, domain.DefaultStorePath())
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "path", base)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(indexPath(filepath.Join(base, e.Name()))); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
