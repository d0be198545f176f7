// Package fs provides file system adapters: walking, snapshotting, resolving, and
// verifying the paths a task declares as inputs and outputs.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// WalkEntry is one path visited by Walker, tagged with whether it is a directory.
type WalkEntry struct {
	Path  string
	IsDir bool
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// Walk yields every path under root, files and directories alike, skipping .git, .jj,
// and any name matching an ignore pattern. root itself is not yielded.
func (w *Walker) Walk(root string, ignores []string) iter.Seq[WalkEntry] {
	return func(yield func(WalkEntry) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}

			if skipAction := w.shouldSkipDir(d, ignores); skipAction != nil {
				return skipAction
			}
			if !w.matchesIgnore(d, ignores) {
				if !yield(WalkEntry{Path: path, IsDir: d.IsDir()}) {
					return filepath.SkipAll
				}
			}
			return nil
		})
	}
}

// WalkFiles yields all regular files in the root directory, skipping .git and ignored
// directories.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for entry := range w.Walk(root, ignores) {
			if !entry.IsDir {
				if !yield(entry.Path) {
					return
				}
			}
		}
	}
}

// shouldSkipDir returns filepath.SkipDir when a directory entry must be pruned entirely
// (its contents are never visited).
func (w *Walker) shouldSkipDir(d fs.DirEntry, ignores []string) error {
	name := d.Name()

	if d.IsDir() && (name == ".git" || name == ".jj") {
		return filepath.SkipDir
	}
	if d.IsDir() && w.matchesIgnore(d, ignores) {
		return filepath.SkipDir
	}
	return nil
}

// matchesIgnore reports whether an entry's name matches one of the ignore glob patterns.
func (w *Walker) matchesIgnore(d fs.DirEntry, ignores []string) bool {
	name := d.Name()
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
