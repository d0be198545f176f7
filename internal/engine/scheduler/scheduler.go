// Package scheduler implements the task execution scheduler: it walks the dependency
// graph in dependency order, fanning out ready tasks across a bounded worker pool, and
// for each task decides whether the up-to-date check lets it skip the task's
// actions entirely or whether it must run them and record a fresh history entry.
package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/bob/internal/engine/history"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Scheduler manages the execution of tasks in the dependency graph.
type Scheduler struct {
	graph      *domain.Graph
	executor   ports.Executor
	history    *history.Repository
	verifier   ports.Verifier
	envFactory ports.EnvironmentFactory
	tracer     ports.Tracer
	logger     ports.Logger
	root       string

	mu         sync.RWMutex
	taskStatus map[domain.InternedString]domain.TaskStatus
}

// NewScheduler creates a new Scheduler for graph. It validates the graph before
// proceeding and returns an error if validation fails. root is the directory task file
// paths are resolved and verified against.
func NewScheduler(
	graph *domain.Graph,
	executor ports.Executor,
	historyRepo *history.Repository,
	verifier ports.Verifier,
	envFactory ports.EnvironmentFactory,
	tracer ports.Tracer,
	logger ports.Logger,
	root string,
) (*Scheduler, error) {
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		graph:      graph,
		executor:   executor,
		history:    historyRepo,
		verifier:   verifier,
		envFactory: envFactory,
		tracer:     tracer,
		logger:     logger,
		root:       root,
		taskStatus: make(map[domain.InternedString]domain.TaskStatus),
	}
	s.initTaskStatuses()
	return s, nil
}

func (s *Scheduler) initTaskStatuses() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for task := range s.graph.Walk() {
		s.taskStatus[task.Name] = domain.TaskStatusPending
	}
}

func (s *Scheduler) updateStatus(name domain.InternedString, status domain.TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

// Status returns the current lifecycle status of the named task, and whether that task is
// known to this scheduler's graph at all.
func (s *Scheduler) Status(name domain.InternedString) (domain.TaskStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.taskStatus[name]
	return status, ok
}

// runState is the mutable bookkeeping shared by every worker goroutine during one Run
// call: in-degree counters for topological readiness, the set of tasks already resolved
// (executed, skipped, or failed), and the channel through which newly-ready tasks are
// handed to whichever worker picks them up next.
type runState struct {
	mu        sync.Mutex
	inDegree  map[domain.InternedString]int
	tasks     map[domain.InternedString]domain.Task
	resolved  map[domain.InternedString]bool
	remaining int
	readyCh   chan domain.InternedString
	errs      error
}

// Run executes the tasks in the graph with the given number of concurrent workers. It
// returns once every task has either run, been skipped as up to date, been skipped
// because an ancestor failed, or the context was cancelled.
func (s *Scheduler) Run(ctx context.Context, parallelism int) error {
	if parallelism < 1 {
		parallelism = 1
	}

	taskCount := s.graph.TaskCount()
	rs := &runState{
		inDegree: make(map[domain.InternedString]int, taskCount),
		tasks:    make(map[domain.InternedString]domain.Task, taskCount),
		resolved: make(map[domain.InternedString]bool, taskCount),
		readyCh:  make(chan domain.InternedString, taskCount),
	}
	rs.remaining = taskCount

	for task := range s.graph.Walk() {
		rs.tasks[task.Name] = task
		rs.inDegree[task.Name] = len(task.Dependencies)
	}

	if taskCount == 0 {
		return nil
	}

	for name, degree := range rs.inDegree {
		if degree == 0 {
			rs.readyCh <- name
		}
	}

	var g errgroup.Group
	for i := 0; i < parallelism; i++ {
		g.Go(func() error {
			s.work(ctx, rs)
			return nil
		})
	}

	_ = g.Wait()

	if ctx.Err() != nil {
		rs.mu.Lock()
		rs.errs = errors.Join(rs.errs, ctx.Err())
		rs.mu.Unlock()
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.errs
}

// work drains ready tasks from rs.readyCh until it is closed, which happens once every
// task in the graph has been resolved one way or another.
func (s *Scheduler) work(ctx context.Context, rs *runState) {
	for name := range rs.readyCh {
		if ctx.Err() != nil {
			s.updateStatus(name, domain.TaskStatusSkipped)
			rs.resolve(name)
			rs.cascadeSkip(name, s)
			continue
		}

		task := rs.tasks[name]
		s.updateStatus(name, domain.TaskStatusRunning)

		if err := s.executeTask(ctx, &task); err != nil {
			wrapped := zerr.With(zerr.Wrap(err, "task execution failed"), "task", name.String())
			rs.mu.Lock()
			rs.errs = errors.Join(rs.errs, wrapped)
			rs.mu.Unlock()
			s.updateStatus(name, domain.TaskStatusFailed)
			rs.resolve(name)
			rs.cascadeSkip(name, s)
			continue
		}

		rs.resolve(name)
		for _, dep := range s.graph.Dependents(name) {
			rs.mu.Lock()
			rs.inDegree[dep]--
			ready := rs.inDegree[dep] == 0
			rs.mu.Unlock()
			if ready {
				rs.readyCh <- dep
			}
		}
	}
}

// resolve marks name as finished (however it finished) and closes readyCh once every
// task in the graph has been resolved, letting every worker's range loop exit.
func (rs *runState) resolve(name domain.InternedString) {
	rs.mu.Lock()
	if rs.resolved[name] {
		rs.mu.Unlock()
		return
	}
	rs.resolved[name] = true
	rs.remaining--
	done := rs.remaining == 0
	rs.mu.Unlock()
	if done {
		close(rs.readyCh)
	}
}

// cascadeSkip marks every not-yet-resolved dependent of name as skipped, recursively,
// since none of them can ever become ready now that name did not succeed.
func (rs *runState) cascadeSkip(name domain.InternedString, s *Scheduler) {
	for _, dep := range s.graph.Dependents(name) {
		rs.mu.Lock()
		already := rs.resolved[dep]
		rs.mu.Unlock()
		if already {
			continue
		}
		s.updateStatus(dep, domain.TaskStatusSkipped)
		rs.resolve(dep)
		rs.cascadeSkip(dep, s)
	}
}

// executeTask runs the up-to-date check for task, skipping the task's actions
// entirely when history says it's compatible and the verifier confirms the recorded
// outputs are still intact on disk, or running it and persisting a fresh record
// otherwise. The lifecycle observed on the returned History is always
// PreviousExecution, CurrentExecution, one of the UpdateCurrent variants, then Persist.
func (s *Scheduler) executeTask(ctx context.Context, task *domain.Task) error {
	spanCtx, span := s.tracer.Start(ctx, task.Name.String())
	defer span.End()

	h := s.history.GetHistory(task)

	previous, err := h.PreviousExecution(spanCtx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	current, err := h.CurrentExecution(spanCtx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if compatible, _ := previous.IsCompatibleForSkip(current); compatible && s.outputsVerified(previous) {
		s.logger.Debug("skipping " + task.Name.String() + ": up to date")
		if err := h.UpdateCurrentWithOutputs(spanCtx, previous.OutputFiles, true); err != nil {
			span.RecordError(err)
			return err
		}
		if err := h.Persist(spanCtx); err != nil {
			span.RecordError(err)
			return err
		}
		s.updateStatus(task.Name, domain.TaskStatusCached)
		span.SetStatus(ports.TaskStatus(domain.TaskStatusCached))
		return nil
	}

	if overlap, found := h.DetectedOverlap(); found {
		s.logger.Warn("output property " + overlap.PropertyName + " of " + task.Name.String() +
			" overlaps another task's output at " + overlap.AbsolutePath)
	}

	env, err := s.buildEnvironment(spanCtx, task)
	if err != nil {
		span.RecordError(err)
		return err
	}

	runErr := s.executor.Execute(spanCtx, task, env)
	if runErr != nil {
		span.RecordError(runErr)
	}

	if err := h.UpdateCurrent(spanCtx, nil, runErr == nil); err != nil {
		if runErr == nil {
			runErr = err
		}
	} else if err := h.Persist(spanCtx); err != nil {
		if runErr == nil {
			runErr = err
		}
	}

	if runErr != nil {
		span.SetStatus(ports.TaskStatus(domain.TaskStatusFailed))
		return runErr
	}
	s.updateStatus(task.Name, domain.TaskStatusCompleted)
	span.SetStatus(ports.TaskStatus(domain.TaskStatusCompleted))
	return nil
}

// outputsVerified reports whether every output property this record recorded is still
// present on disk with matching content, so a skip doesn't hide tampering or accidental
// deletion since the last execution.
func (s *Scheduler) outputsVerified(record *domain.TaskExecutionRecord) bool {
	for _, tree := range record.OutputFiles {
		ok, err := s.verifier.VerifyOutputs(s.root, tree)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

// buildEnvironment asks the environment factory for a hermetic base environment, then
// overlays the task's own declared environment variables on top of it.
func (s *Scheduler) buildEnvironment(ctx context.Context, task *domain.Task) ([]string, error) {
	base, err := s.envFactory.GetEnvironment(ctx, map[string]string{})
	if err != nil {
		return nil, err
	}
	if len(task.Environment) == 0 {
		return base, nil
	}

	merged := make(map[string]string, len(base)+len(task.Environment))
	for _, kv := range base {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				merged[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	for k, v := range task.Environment {
		merged[k] = v
	}

	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out, nil
}
