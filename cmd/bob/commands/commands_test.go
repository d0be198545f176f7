package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bob/cmd/bob/commands"
	"go.trai.ch/bob/internal/adapters/telemetry"
	"go.trai.ch/bob/internal/app"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/engine/history"
)

type fakeLoader struct{ graph *domain.Graph }

func (f fakeLoader) Load(string) (*domain.Graph, error) { return f.graph, nil }

type fakeExecutor struct{}

func (fakeExecutor) Execute(context.Context, *domain.Task, []string) error { return nil }

type fakeHistoryStore struct{}

func (fakeHistoryStore) Get(context.Context, string) (*domain.TaskExecutionRecord, error) {
	return nil, nil
}
func (fakeHistoryStore) Put(context.Context, string, *domain.TaskExecutionRecord) error { return nil }
func (fakeHistoryStore) Close() error                                                   { return nil }

type fakeSnapshotter struct{}

func (fakeSnapshotter) Snapshot(
	context.Context, string, []string, domain.CompareStrategy, domain.PathNormalizationStrategy,
) (*domain.FileTreeSnapshot, error) {
	return domain.EmptyFileTreeSnapshot(), nil
}

func (fakeSnapshotter) SnapshotPaths(
	context.Context, []string, domain.CompareStrategy, domain.PathNormalizationStrategy,
) (*domain.FileTreeSnapshot, error) {
	return domain.EmptyFileTreeSnapshot(), nil
}

type fakeValueSnapshotter struct{}

func (fakeValueSnapshotter) Snapshot(any) (domain.ValueSnapshot, error) {
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

func (fakeHasher) HashImplementation(*domain.Task) (domain.ImplementationSnapshots, error) {
	return domain.ImplementationSnapshots{domain.NewImplementationSnapshot("noop", 1)}, nil
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyOutputs(string, *domain.FileTreeSnapshot) (bool, error) { return true, nil }

type fakeEnvFactory struct{}

func (fakeEnvFactory) GetEnvironment(context.Context, map[string]string) ([]string, error) {
	return nil, nil
}

type fakeLogger struct{}

func (fakeLogger) Debug(string) {}
func (fakeLogger) Info(string)  {}
func (fakeLogger) Warn(string)  {}
func (fakeLogger) Error(error)  {}

func newCLI(t *testing.T) *commands.CLI {
	t.Helper()
	g := domain.NewGraph()
	require.NoError(t, g.AddTask(&domain.Task{Name: domain.NewInternedString("build"), Command: []string{"echo", "hi"}}))

	repo := history.NewRepository(fakeHistoryStore{}, fakeSnapshotter{}, fakeValueSnapshotter{}, fakeHasher{}, t.TempDir())
	a := app.New(
		fakeLoader{graph: g}, fakeExecutor{}, repo, fakeVerifier{}, fakeEnvFactory{},
		telemetry.NewNoOpTracer(), fakeLogger{}, t.TempDir(),
	)
	return commands.New(a)
}

func TestRun_Success(t *testing.T) {
	cli := newCLI(t)
	cli.SetArgs([]string{"run", "build"})
	assert.NoError(t, cli.Execute(context.Background()))
}

func TestRun_NoTargets(t *testing.T) {
	cli := newCLI(t)
	cli.SetArgs([]string{"run"})
	assert.NoError(t, cli.Execute(context.Background()))
}

func TestRoot_Help(t *testing.T) {
	cli := newCLI(t)
	cli.SetArgs([]string{"--help"})
	assert.NoError(t, cli.Execute(context.Background()))
}

func TestVersion(t *testing.T) {
	cli := newCLI(t)
	cli.SetArgs([]string{"version"})
	assert.NoError(t, cli.Execute(context.Background()))
}
