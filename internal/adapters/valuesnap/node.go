package valuesnap

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bob/internal/core/ports"
)

// NodeID identifies the ports.ValueSnapshotter node.
const NodeID graft.ID = "adapter.valuesnap.snapshotter"

func init() {
	graft.Register(graft.Node[ports.ValueSnapshotter]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.ValueSnapshotter, error) {
			return NewSnapshotter(), nil
		},
	})
}
