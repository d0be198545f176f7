// Package app implements the application layer for bob: loading a project's task graph,
// narrowing it to the requested targets, and driving the scheduler over the result.
package app

import (
	"context"

	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/bob/internal/engine/history"
	"go.trai.ch/bob/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App wires the config loader, execution collaborators, and scheduler together into the
// single entry point the CLI layer calls.
type App struct {
	configLoader ports.ConfigLoader
	executor     ports.Executor
	historyRepo  *history.Repository
	verifier     ports.Verifier
	envFactory   ports.EnvironmentFactory
	tracer       ports.Tracer
	logger       ports.Logger
	root         string
}

// New creates a new App instance from its collaborators. root is the project directory
// the config file is loaded from and task file paths are resolved against.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	historyRepo *history.Repository,
	verifier ports.Verifier,
	envFactory ports.EnvironmentFactory,
	tracer ports.Tracer,
	logger ports.Logger,
	root string,
) *App {
	return &App{
		configLoader: loader,
		executor:     executor,
		historyRepo:  historyRepo,
		verifier:     verifier,
		envFactory:   envFactory,
		tracer:       tracer,
		logger:       logger,
		root:         root,
	}
}

// Run loads the project's task graph, narrows it to targetNames and their transitive
// dependencies, and executes that subgraph with the given number of concurrent workers.
func (a *App) Run(ctx context.Context, targetNames []string, parallelism int) error {
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	graph, err := a.configLoader.Load(a.root)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	targets := make([]domain.InternedString, len(targetNames))
	for i, name := range targetNames {
		targets[i] = domain.NewInternedString(name)
	}

	subgraph, err := graph.Subgraph(targets)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve targets")
	}

	a.tracer.EmitPlan(ctx, targetNames)

	sched, err := scheduler.NewScheduler(
		subgraph, a.executor, a.historyRepo, a.verifier, a.envFactory, a.tracer, a.logger, a.root,
	)
	if err != nil {
		return zerr.Wrap(err, "failed to build scheduler")
	}

	if err := sched.Run(ctx, parallelism); err != nil {
		return zerr.Wrap(domain.ErrBuildExecutionFailed, err.Error())
	}

	return nil
}
