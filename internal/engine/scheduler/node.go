package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bob/internal/adapters/env"        //nolint:depguard // wired in engine wiring
	"go.trai.ch/bob/internal/adapters/fs"         //nolint:depguard // wired in engine wiring
	"go.trai.ch/bob/internal/adapters/logger"     //nolint:depguard // wired in engine wiring
	"go.trai.ch/bob/internal/adapters/shell"      //nolint:depguard // wired in engine wiring
	"go.trai.ch/bob/internal/adapters/telemetry"  //nolint:depguard // wired in engine wiring
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/bob/internal/engine/history" //nolint:depguard // wired in engine wiring
)

// NodeID identifies a graph-bound *Scheduler node. Since a Scheduler is built for one
// specific domain.Graph, callers typically resolve its collaborators via graft and call
// NewScheduler directly rather than depending on this node; the node exists so a fixed,
// empty-graph scheduler can still be exercised through the DI graph in tests.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: false,
		DependsOn: []graft.ID{
			shell.NodeID,
			history.NodeID,
			fs.VerifierNodeID,
			env.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			historyRepo, err := graft.Dep[*history.Repository](ctx)
			if err != nil {
				return nil, err
			}
			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}
			envFactory, err := graft.Dep[ports.EnvironmentFactory](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewScheduler(domain.NewGraph(), executor, historyRepo, verifier, envFactory, tracer, log, ".")
		},
	})
}
