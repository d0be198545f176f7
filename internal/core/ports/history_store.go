package ports

import (
	"context"
	"io"

	"go.trai.ch/bob/internal/core/domain"
)

// HistoryStore is the persistent indexed store for task execution records:
// a durable, process-shareable index from task identity to its most recent execution
// record.
//
//go:generate go run go.uber.org/mock/mockgen -source=history_store.go -destination=mocks/mock_history_store.go -package=mocks
type HistoryStore interface {
	// Get retrieves the most recent execution record for taskKey.
	// Returns nil, nil if no compatible record exists — including one written by an
	// incompatible schema version, which is treated identically to "never ran".
	Get(ctx context.Context, taskKey string) (*domain.TaskExecutionRecord, error)

	// Put durably persists record as the new most recent execution for taskKey.
	// A successful Put is visible to Get calls from any process sharing the same
	// store directory once the process-level convergence point (Close, or an explicit
	// Sync) has been reached.
	Put(ctx context.Context, taskKey string, record *domain.TaskExecutionRecord) error

	// Close flushes any buffered writes and releases the store's resources, including
	// its cross-process lock.
	Close() error
}

// BlobStore is the content-addressed side of the persistent indexed store: the serialized
// file tree snapshots that execution records refer to, indexed by hash so an identical
// tree recorded by different tasks (or different executions of the same task) is stored
// once.
//
//go:generate go run go.uber.org/mock/mockgen -source=history_store.go -destination=mocks/mock_history_store.go -package=mocks
type BlobStore interface {
	// Has reports whether content with the given hash is already stored.
	Has(ctx context.Context, hash uint64) (bool, error)

	// Put stores content under hash, incrementing its reference count if already
	// present. It is safe to call concurrently for the same hash.
	Put(ctx context.Context, hash uint64, content io.Reader) error

	// Get returns a reader over the stored content for hash. Returns
	// domain.ErrStoreRead if hash is not present.
	Get(ctx context.Context, hash uint64) (io.ReadCloser, error)

	// Release decrements the reference count for hash, allowing the store to reclaim
	// it once no execution record references it anymore.
	Release(ctx context.Context, hash uint64) error
}
