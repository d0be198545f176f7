package store

import (
	"context"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/bob/internal/core/ports"
)

// dbNodeID identifies the underlying *Store node that owns the badger database and its
// lock; HistoryStoreNodeID and BlobsNodeID both depend on it and share its instance.
const dbNodeID graft.ID = "adapter.store.db"

// NodeID identifies the ports.HistoryStore node.
const NodeID graft.ID = "adapter.store.history"

// BlobsNodeID identifies the ports.BlobStore node.
const BlobsNodeID graft.ID = "adapter.store.blobs"

// storeDir is the directory name, relative to the working directory a build runs from,
// that holds the persistent indexed store. Kept unexported: callers configure the root
// through the working directory they invoke the build from, not through this path.
const storeDir = ".bob/store"

func init() {
	graft.Register(graft.Node[*Store]{
		ID:        dbNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (*Store, error) {
			return Open(filepath.Join(".", storeDir))
		},
	})

	graft.Register(graft.Node[ports.HistoryStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{dbNodeID},
		Run: func(ctx context.Context) (ports.HistoryStore, error) {
			return graft.Dep[*Store](ctx)
		},
	})

	graft.Register(graft.Node[ports.BlobStore]{
		ID:        BlobsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{dbNodeID},
		Run: func(ctx context.Context) (ports.BlobStore, error) {
			s, err := graft.Dep[*Store](ctx)
			if err != nil {
				return nil, err
			}
			return s.Blobs(), nil
		},
	})
}
