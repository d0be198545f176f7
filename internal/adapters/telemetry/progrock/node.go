package progrock

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bob/internal/core/ports"
)

// NodeID identifies the progrock-backed ports.Tracer node. It is a distinct node from
// telemetry.TracerNodeID; callers choose which tracer implementation to wire by
// depending on one or the other, not both.
const NodeID graft.ID = "adapter.telemetry.progrock"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return New(), nil
		},
	})
}
