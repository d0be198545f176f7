package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/bob/internal/adapters/config" //nolint:depguard // wired in app layer
	"go.trai.ch/bob/internal/adapters/env"    //nolint:depguard // wired in app layer
	"go.trai.ch/bob/internal/adapters/fs"     //nolint:depguard // wired in app layer
	"go.trai.ch/bob/internal/adapters/logger" //nolint:depguard // wired in app layer
	"go.trai.ch/bob/internal/adapters/shell"  //nolint:depguard // wired in app layer
	"go.trai.ch/bob/internal/adapters/telemetry" //nolint:depguard // wired in app layer
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/bob/internal/engine/history" //nolint:depguard // wired in app layer
)

// NodeID identifies the *App node.
const NodeID graft.ID = "app.main"

func init() {
	graft.Register(graft.Node[*App]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			shell.NodeID,
			history.NodeID,
			fs.VerifierNodeID,
			env.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}
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

			return New(loader, executor, historyRepo, verifier, envFactory, tracer, log, "."), nil
		},
	})
}
