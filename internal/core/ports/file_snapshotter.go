package ports

import (
	"context"

	"go.trai.ch/bob/internal/core/domain"
)

// FileTreeSnapshotter observes the current content of a set of file-system paths and
// produces a domain.FileTreeSnapshot. It is the boundary between the
// domain's pure comparison logic and actual disk I/O.
//
//go:generate go run go.uber.org/mock/mockgen -source=file_snapshotter.go -destination=mocks/mock_file_snapshotter.go -package=mocks
type FileTreeSnapshotter interface {
	// Snapshot resolves patterns against root and hashes the content found at each
	// resolved path, producing a tree with the given compare strategy and path
	// normalization.
	Snapshot(ctx context.Context, root string, patterns []string, strategy domain.CompareStrategy, normalization domain.PathNormalizationStrategy) (*domain.FileTreeSnapshot, error)

	// SnapshotPaths re-observes a fixed, already-known set of absolute paths, without
	// resolving glob patterns again. Used to replay a previous snapshot's element list
	// when only confirming it is still up to date.
	SnapshotPaths(ctx context.Context, absolutePaths []string, strategy domain.CompareStrategy, normalization domain.PathNormalizationStrategy) (*domain.FileTreeSnapshot, error)
}
