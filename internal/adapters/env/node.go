package env

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bob/internal/core/ports"
)

// NodeID identifies the ports.EnvironmentFactory node.
const NodeID graft.ID = "adapter.env"

func init() {
	graft.Register(graft.Node[ports.EnvironmentFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.EnvironmentFactory, error) {
			return NewFactory(), nil
		},
	})
}
