// Package fs resolves declared input paths to content-addressed dependencies.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/prov/internal/core/domain"
)

// skipDirs are never descended into when a dependency names a directory.
var skipDirs = map[string]bool{
	".git":             true,
	".hg":              true,
	".svn":             true,
	".jj":              true,
	domain.ProvDirName: true,
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file below root in lexical order, skipping
// version control metadata, the prov workspace and names matching ignores.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if skip, action := w.skip(d, ignores); skip {
				return action
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil {
			yield("", err)
		}
	}
}

// skip reports whether d is excluded. action is filepath.SkipDir for directories.
func (w *Walker) skip(d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()
	if d.IsDir() && skipDirs[name] {
		return true, filepath.SkipDir
	}
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}
	return false, nil
}
