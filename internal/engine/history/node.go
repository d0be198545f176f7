package history

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bob/internal/adapters/fs"        //nolint:depguard // wired in engine wiring
	"go.trai.ch/bob/internal/adapters/implhash"  //nolint:depguard // wired in engine wiring
	"go.trai.ch/bob/internal/adapters/store"     //nolint:depguard // wired in engine wiring
	"go.trai.ch/bob/internal/adapters/valuesnap" //nolint:depguard // wired in engine wiring
	"go.trai.ch/bob/internal/core/ports"
)

// NodeID identifies the *Repository node.
const NodeID graft.ID = "engine.history"

func init() {
	graft.Register(graft.Node[*Repository]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			store.NodeID,
			fs.SnapshotterNodeID,
			valuesnap.NodeID,
			implhash.NodeID,
		},
		Run: func(ctx context.Context) (*Repository, error) {
			historyStore, err := graft.Dep[ports.HistoryStore](ctx)
			if err != nil {
				return nil, err
			}
			snapshotter, err := graft.Dep[ports.FileTreeSnapshotter](ctx)
			if err != nil {
				return nil, err
			}
			valueSnapshotter, err := graft.Dep[ports.ValueSnapshotter](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[ports.ImplementationHasher](ctx)
			if err != nil {
				return nil, err
			}
			return NewRepository(historyStore, snapshotter, valueSnapshotter, hasher, "."), nil
		},
	})
}
