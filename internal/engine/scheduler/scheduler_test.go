package scheduler_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bob/internal/adapters/telemetry"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/bob/internal/engine/history"
	"go.trai.ch/bob/internal/engine/scheduler"
)

// fakeHistoryStore is a hand-written test double for ports.HistoryStore.
type fakeHistoryStore struct {
	mu      sync.Mutex
	records map[string]*domain.TaskExecutionRecord
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{records: map[string]*domain.TaskExecutionRecord{}}
}

func (f *fakeHistoryStore) Get(_ context.Context, taskKey string) (*domain.TaskExecutionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[taskKey], nil
}

func (f *fakeHistoryStore) Put(_ context.Context, taskKey string, record *domain.TaskExecutionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[taskKey] = record
	return nil
}

func (f *fakeHistoryStore) Close() error { return nil }

// fakeSnapshotter returns an empty tree for every property; content never changes.
type fakeSnapshotter struct{}

func (fakeSnapshotter) Snapshot(
	_ context.Context, _ string, _ []string, _ domain.CompareStrategy, _ domain.PathNormalizationStrategy,
) (*domain.FileTreeSnapshot, error) {
	return domain.EmptyFileTreeSnapshot(), nil
}

func (fakeSnapshotter) SnapshotPaths(
	_ context.Context, _ []string, _ domain.CompareStrategy, _ domain.PathNormalizationStrategy,
) (*domain.FileTreeSnapshot, error) {
	return domain.EmptyFileTreeSnapshot(), nil
}

type fakeValueSnapshotter struct{}

func (fakeValueSnapshotter) Snapshot(_ any) (domain.ValueSnapshot, error) {
	return domain.NewValueSnapshot(1), nil
}

func (f fakeValueSnapshotter) SnapshotWithPrevious(value any, previous domain.ValueSnapshot) (domain.ValueSnapshot, error) {
	snap, err := f.Snapshot(value)
	if err != nil {
		return domain.ValueSnapshot{}, err
	}
	if snap.IsUpToDate(previous) {
		return previous, nil
	}
	return snap, nil
}

type fakeHasher struct{}

func (fakeHasher) HashImplementation(task *domain.Task) (domain.ImplementationSnapshots, error) {
	name := "noop"
	if len(task.Command) > 0 {
		name = task.Command[0]
	}
	return domain.ImplementationSnapshots{domain.NewImplementationSnapshot(name, 1)}, nil
}

// fakeExecutor records the order in which tasks are executed.
type fakeExecutor struct {
	mu      sync.Mutex
	order   []string
	failing map[string]bool
}

func (f *fakeExecutor) Execute(_ context.Context, task *domain.Task, _ []string) error {
	f.mu.Lock()
	f.order = append(f.order, task.Name.String())
	fail := f.failing[task.Name.String()]
	f.mu.Unlock()
	if fail {
		return assertError{}
	}
	return nil
}

type assertError struct{}

func (assertError) Error() string { return "task failed" }

type fakeVerifier struct {
	ok bool
}

func (f fakeVerifier) VerifyOutputs(_ string, _ *domain.FileTreeSnapshot) (bool, error) {
	return f.ok, nil
}

type fakeEnvFactory struct{}

func (fakeEnvFactory) GetEnvironment(_ context.Context, _ map[string]string) ([]string, error) {
	return nil, nil
}

type fakeLogger struct{}

func (fakeLogger) Debug(string) {}
func (fakeLogger) Info(string)  {}
func (fakeLogger) Warn(string)  {}
func (fakeLogger) Error(error)  {}

func newScheduler(t *testing.T, g *domain.Graph, store *fakeHistoryStore, executor *fakeExecutor, verified bool) *scheduler.Scheduler {
	t.Helper()
	repo := history.NewRepository(store, fakeSnapshotter{}, fakeValueSnapshotter{}, fakeHasher{}, t.TempDir())
	s, err := scheduler.NewScheduler(
		g, executor, repo, fakeVerifier{ok: verified}, fakeEnvFactory{},
		telemetry.NewNoOpTracer(), fakeLogger{}, t.TempDir(),
	)
	require.NoError(t, err)
	return s
}

func buildGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(&domain.Task{
		Name:    domain.NewInternedString("A"),
		Command: []string{"echo", "a"},
		Dependencies: []domain.InternedString{
			domain.NewInternedString("B"),
		},
	}))
	require.NoError(t, g.AddTask(&domain.Task{
		Name:    domain.NewInternedString("B"),
		Command: []string{"echo", "b"},
	}))
	return g
}

func TestScheduler_Run_ExecutesInDependencyOrder(t *testing.T) {
	g := buildGraph(t)
	store := newFakeHistoryStore()
	executor := &fakeExecutor{failing: map[string]bool{}}
	s := newScheduler(t, g, store, executor, true)

	require.NoError(t, s.Run(context.Background(), 2))

	require.Equal(t, []string{"B", "A"}, executor.order)
	status, ok := s.Status(domain.NewInternedString("A"))
	require.True(t, ok)
	assert.Equal(t, domain.TaskStatusCompleted, status)
}

func TestScheduler_Run_SkipsCompatibleTaskWithVerifiedOutputs(t *testing.T) {
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(&domain.Task{Name: domain.NewInternedString("A"), Command: []string{"echo", "a"}}))

	store := newFakeHistoryStore()
	store.records["A"] = &domain.TaskExecutionRecord{
		RecordVersion:  domain.CurrentRecordVersion,
		TaskPath:       "A",
		Successful:     true,
		Implementation: domain.ImplementationSnapshots{domain.NewImplementationSnapshot("echo", 1)},
		InputProperties: domain.ValueSnapshotMap{
			"command":     domain.NewValueSnapshot(1),
			"environment": domain.NewValueSnapshot(1),
			"workingDir":  domain.NewValueSnapshot(1),
		},
		OutputFiles: map[string]*domain.FileTreeSnapshot{},
	}

	executor := &fakeExecutor{failing: map[string]bool{}}
	s := newScheduler(t, g, store, executor, true)

	require.NoError(t, s.Run(context.Background(), 1))

	assert.Empty(t, executor.order, "up-to-date task must not be executed")
	status, ok := s.Status(domain.NewInternedString("A"))
	require.True(t, ok)
	assert.Equal(t, domain.TaskStatusCached, status)
}

func TestScheduler_Run_FailureSkipsDependents(t *testing.T) {
	g := buildGraph(t)
	store := newFakeHistoryStore()
	executor := &fakeExecutor{failing: map[string]bool{"B": true}}
	s := newScheduler(t, g, store, executor, true)

	err := s.Run(context.Background(), 2)
	require.Error(t, err)

	statusB, _ := s.Status(domain.NewInternedString("B"))
	statusA, _ := s.Status(domain.NewInternedString("A"))
	assert.Equal(t, domain.TaskStatusFailed, statusB)
	assert.Equal(t, domain.TaskStatusSkipped, statusA)
}

func TestScheduler_Run_EmptyGraphSucceeds(t *testing.T) {
	g := domain.NewGraph()
	store := newFakeHistoryStore()
	executor := &fakeExecutor{failing: map[string]bool{}}
	s := newScheduler(t, g, store, executor, true)
	require.NoError(t, s.Run(context.Background(), 4))
}

var _ ports.Logger = fakeLogger{}
