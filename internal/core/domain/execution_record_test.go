package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRecord() *TaskExecutionRecord {
	return &TaskExecutionRecord{
		RecordVersion:  CurrentRecordVersion,
		TaskPath:       ":compile",
		Successful:     true,
		Implementation: ImplementationSnapshots{NewImplementationSnapshot("go build", 1)},
		InputProperties: ValueSnapshotMap{
			"debug": NewValueSnapshot(1),
		},
		InputFiles: map[string]*FileTreeSnapshot{
			"sources": NewFileTreeSnapshot(Unordered, []NormalizedFileSnapshot{
				snap("/src/main.go", "main.go", NewRegularFileSnapshot(1)),
			}),
		},
		OutputProperties: ValueSnapshotMap{},
		OutputFiles: map[string]*FileTreeSnapshot{
			"outputDir": NewAssignedOutputSnapshot([]NormalizedFileSnapshot{
				snap("/out/main", "main", NewRegularFileSnapshot(10)),
			}),
		},
	}
}

func TestTaskExecutionRecord_IsCompatibleForSkip_Identical(t *testing.T) {
	previous := buildRecord()
	current := buildRecord()

	ok, report := previous.IsCompatibleForSkip(current)
	assert.True(t, ok)
	assert.Empty(t, report)
}

func TestTaskExecutionRecord_IsCompatibleForSkip_FailedPreviousNeverSkips(t *testing.T) {
	previous := buildRecord()
	previous.Successful = false
	current := buildRecord()

	ok, report := previous.IsCompatibleForSkip(current)
	assert.False(t, ok)
	require.Len(t, report, 1)
	assert.Equal(t, ChangeNoHistory, report[0].Kind)
}

func TestTaskExecutionRecord_IsCompatibleForSkip_ImplementationChanged(t *testing.T) {
	previous := buildRecord()
	current := buildRecord()
	current.Implementation = ImplementationSnapshots{NewImplementationSnapshot("go build", 2)}

	ok, report := previous.IsCompatibleForSkip(current)
	assert.False(t, ok)
	assert.Equal(t, ChangeImplementation, report[0].Kind)
}

func TestTaskExecutionRecord_IsCompatibleForSkip_InputFilesChanged(t *testing.T) {
	previous := buildRecord()
	current := buildRecord()
	current.InputFiles["sources"] = NewFileTreeSnapshot(Unordered, []NormalizedFileSnapshot{
		snap("/src/main.go", "main.go", NewRegularFileSnapshot(2)),
	})

	ok, report := previous.IsCompatibleForSkip(current)
	assert.False(t, ok)
	require.Len(t, report, 1)
	assert.Equal(t, ChangeInputFiles, report[0].Kind)
	assert.Equal(t, "sources", report[0].PropertyName)
}

func TestTaskExecutionRecord_IsCompatibleForSkip_ChangedOutputFilesIgnored(t *testing.T) {
	previous := buildRecord()
	current := buildRecord()
	current.OutputFiles["outputDir"] = EmptyFileTreeSnapshot()

	ok, _ := previous.IsCompatibleForSkip(current)
	assert.True(t, ok, "output state does not participate in the skip decision")
}

func TestTaskExecutionRecord_IsCompatibleForSkip_NoDiscoveredInputsIsUpToDate(t *testing.T) {
	previous := buildRecord()
	current := buildRecord()

	ok, report := previous.IsCompatibleForSkip(current)
	assert.True(t, ok)
	assert.Empty(t, report)
}

func TestTaskExecutionRecord_IsCompatibleForSkip_DiscoveredInputsChanged(t *testing.T) {
	previous := buildRecord()
	previous.DiscoveredInputs = NewFileTreeSnapshot(Unordered, []NormalizedFileSnapshot{
		snap("/src/generated.h", "generated.h", NewRegularFileSnapshot(1)),
	})
	current := buildRecord()
	current.DiscoveredInputs = NewFileTreeSnapshot(Unordered, []NormalizedFileSnapshot{
		snap("/src/generated.h", "generated.h", NewRegularFileSnapshot(2)),
	})

	ok, report := previous.IsCompatibleForSkip(current)
	assert.False(t, ok)
	require.Len(t, report, 1)
	assert.Equal(t, ChangeDiscoveredInputs, report[0].Kind)
}

func TestTaskExecutionRecord_IsCompatibleForSkip_DiscoveredInputsNewlyReportedIsNotUpToDate(t *testing.T) {
	previous := buildRecord()
	current := buildRecord()
	current.DiscoveredInputs = EmptyFileTreeSnapshot()

	ok, report := previous.IsCompatibleForSkip(current)
	assert.False(t, ok)
	require.Len(t, report, 1)
	assert.Equal(t, ChangeDiscoveredInputs, report[0].Kind)
}

func TestTaskExecutionRecord_AfterPreviousOutputTrees_NilRecord(t *testing.T) {
	var record *TaskExecutionRecord
	assert.Nil(t, record.AfterPreviousOutputTrees())
}
