package shell_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/bob/internal/adapters/shell"
	"go.trai.ch/bob/internal/core/domain"
)

// fakeLogger is a hand-written test double for ports.Logger.
type fakeLogger struct {
	mu    sync.Mutex
	info  []string
	warn  []string
	debug []string
	errs  []error
}

func (f *fakeLogger) Debug(msg string) { f.mu.Lock(); defer f.mu.Unlock(); f.debug = append(f.debug, msg) }
func (f *fakeLogger) Info(msg string)  { f.mu.Lock(); defer f.mu.Unlock(); f.info = append(f.info, msg) }
func (f *fakeLogger) Warn(msg string)  { f.mu.Lock(); defer f.mu.Unlock(); f.warn = append(f.warn, msg) }
func (f *fakeLogger) Error(err error)  { f.mu.Lock(); defer f.mu.Unlock(); f.errs = append(f.errs, err) }

func TestExecutor_Execute_MultiLineOutput(t *testing.T) {
	logger := &fakeLogger{}
	executor := shell.NewExecutor(logger)
	tmpDir := t.TempDir()

	task := &domain.Task{
		Name:       domain.NewInternedString("test-task"),
		Command:    []string{"sh", "-c", "echo line1; echo line2"},
		WorkingDir: domain.NewInternedString(tmpDir),
	}

	require.NoError(t, executor.Execute(context.Background(), task, nil))
	assert.Equal(t, []string{"line1", "line2"}, logger.info)
}

func TestExecutor_Execute_EnvironmentVariables(t *testing.T) {
	logger := &fakeLogger{}
	executor := shell.NewExecutor(logger)
	tmpDir := t.TempDir()

	task := &domain.Task{
		Name:        domain.NewInternedString("test-task"),
		Command:     []string{"sh", "-c", "echo $MY_VAR"},
		WorkingDir:  domain.NewInternedString(tmpDir),
		Environment: map[string]string{"MY_VAR": "test-value-123"},
	}

	require.NoError(t, executor.Execute(context.Background(), task, nil))
	assert.Equal(t, []string{"test-value-123"}, logger.info)
}

func TestExecutor_Execute_HermeticEnvironmentPrependsPath(t *testing.T) {
	logger := &fakeLogger{}
	executor := shell.NewExecutor(logger)
	tmpDir := t.TempDir()

	task := &domain.Task{
		Name:       domain.NewInternedString("test-task"),
		Command:    []string{"sh", "-c", "echo $PATH"},
		WorkingDir: domain.NewInternedString(tmpDir),
	}

	require.NoError(t, executor.Execute(context.Background(), task, []string{"PATH=/hermetic/bin"}))
	require.Len(t, logger.info, 1)
	assert.Contains(t, logger.info[0], "/hermetic/bin")
}

func TestExecutor_Execute_CommandFailureReturnsError(t *testing.T) {
	logger := &fakeLogger{}
	executor := shell.NewExecutor(logger)
	tmpDir := t.TempDir()

	task := &domain.Task{
		Name:       domain.NewInternedString("test-task"),
		Command:    []string{"sh", "-c", "exit 3"},
		WorkingDir: domain.NewInternedString(tmpDir),
	}

	err := executor.Execute(context.Background(), task, nil)
	require.Error(t, err)
}

func TestExecutor_Execute_EmptyCommandIsNoOp(t *testing.T) {
	logger := &fakeLogger{}
	executor := shell.NewExecutor(logger)
	require.NoError(t, executor.Execute(context.Background(), &domain.Task{Name: domain.NewInternedString("empty")}, nil))
	assert.Empty(t, logger.info)
}
