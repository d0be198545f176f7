package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FileTreeSnapshotter = (*Snapshotter)(nil)

// Snapshotter implements ports.FileTreeSnapshotter by resolving glob patterns against
// the filesystem, walking any directories they match, and hashing every regular file
// found along the way.
type Snapshotter struct {
	walker *Walker
}

// NewSnapshotter creates a Snapshotter backed by the given Walker.
func NewSnapshotter(walker *Walker) *Snapshotter {
	return &Snapshotter{walker: walker}
}

// Snapshot resolves patterns against root and hashes everything found.
func (s *Snapshotter) Snapshot(ctx context.Context, root string, patterns []string, strategy domain.CompareStrategy, normalization domain.PathNormalizationStrategy) (*domain.FileTreeSnapshot, error) {
	absPaths := make(map[string]struct{})
	var missing []string

	for _, pattern := range patterns {
		joined := filepath.Join(root, pattern)
		matches, err := filepath.Glob(joined)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to glob pattern"), "pattern", pattern)
		}
		if len(matches) == 0 {
			missing = append(missing, joined)
			continue
		}
		for _, match := range matches {
			absPaths[match] = struct{}{}
		}
	}

	paths := make([]string, 0, len(absPaths))
	for p := range absPaths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	entries := make([]domain.NormalizedFileSnapshot, 0, len(paths))
	for _, p := range paths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		expanded, err := s.expand(p, root, normalization)
		if err != nil {
			return nil, err
		}
		entries = append(entries, expanded...)
	}
	for _, p := range missing {
		entries = append(entries, domain.NewNormalizedFileSnapshot(p, normalizePath(p, root, normalization), domain.Missing))
	}

	return domain.NewFileTreeSnapshot(strategy, entries), nil
}

// SnapshotPaths re-observes a fixed set of absolute paths without resolving patterns.
func (s *Snapshotter) SnapshotPaths(ctx context.Context, absolutePaths []string, strategy domain.CompareStrategy, normalization domain.PathNormalizationStrategy) (*domain.FileTreeSnapshot, error) {
	entries := make([]domain.NormalizedFileSnapshot, 0, len(absolutePaths))
	for _, p := range absolutePaths {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		content, err := snapshotPath(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.NewNormalizedFileSnapshot(p, normalizePath(p, "", normalization), content))
	}
	return domain.NewFileTreeSnapshot(strategy, entries), nil
}

// expand turns a single resolved match into one entry (if it's a file) or a directory
// entry plus one entry per file found underneath it (if it's a directory).
func (s *Snapshotter) expand(absPath, root string, normalization domain.PathNormalizationStrategy) ([]domain.NormalizedFileSnapshot, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to stat resolved path"), "path", absPath)
	}
	if !info.IsDir() {
		content, err := snapshotFile(absPath)
		if err != nil {
			return nil, err
		}
		return []domain.NormalizedFileSnapshot{
			domain.NewNormalizedFileSnapshot(absPath, normalizePath(absPath, root, normalization), content),
		}, nil
	}

	entries := []domain.NormalizedFileSnapshot{
		domain.NewNormalizedFileSnapshot(absPath, normalizePath(absPath, root, normalization), domain.Directory),
	}
	for entry := range s.walker.Walk(absPath, nil) {
		var content domain.ContentSnapshot
		if entry.IsDir {
			content = domain.Directory
		} else {
			content, err = snapshotFile(entry.Path)
			if err != nil {
				return nil, err
			}
		}
		entries = append(entries, domain.NewNormalizedFileSnapshot(entry.Path, normalizePath(entry.Path, root, normalization), content))
	}
	return entries, nil
}

func snapshotPath(absPath string) (domain.ContentSnapshot, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Missing, nil
		}
		return domain.ContentSnapshot{}, zerr.With(zerr.Wrap(err, "failed to stat path"), "path", absPath)
	}
	if info.IsDir() {
		return domain.Directory, nil
	}
	return snapshotFile(absPath)
}

func snapshotFile(absPath string) (domain.ContentSnapshot, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return domain.ContentSnapshot{}, zerr.With(zerr.Wrap(err, "failed to stat file"), "path", absPath)
	}

	f, err := os.Open(absPath) //nolint:gosec // path is resolved from task-declared patterns
	if err != nil {
		return domain.ContentSnapshot{}, zerr.With(zerr.Wrap(err, "failed to open file"), "path", absPath)
	}
	defer f.Close() //nolint:errcheck // best effort close

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return domain.ContentSnapshot{}, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", absPath)
	}

	return domain.NewRegularFileSnapshotWithModTime(h.Sum64(), info.ModTime()), nil
}

// normalizePath applies a PathNormalizationStrategy to an absolute path.
func normalizePath(absPath, root string, normalization domain.PathNormalizationStrategy) string {
	switch normalization {
	case domain.RelativeToRoot:
		if rel, err := filepath.Rel(root, absPath); err == nil {
			return filepath.ToSlash(rel)
		}
		return filepath.ToSlash(absPath)
	case domain.NameOnly:
		return filepath.Base(absPath)
	case domain.NoNormalization:
		return absPath
	default:
		return filepath.ToSlash(absPath)
	}
}
