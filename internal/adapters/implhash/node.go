package implhash

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bob/internal/core/ports"
)

// NodeID identifies the ports.ImplementationHasher node.
const NodeID graft.ID = "adapter.implhash.hasher"

func init() {
	graft.Register(graft.Node[ports.ImplementationHasher]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.ImplementationHasher, error) {
			return NewHasher(), nil
		},
	})
}
