package domain

// CurrentRecordVersion is the schema version written by this build of the history
// repository. A record read back with a different version is treated as absent rather
// than partially trusted, since the shape of its fields is not guaranteed to match.
const CurrentRecordVersion = 1

// TaskExecutionRecord is the durable aggregate persisted for one task execution:
// everything needed to decide, on a later build, whether that task can be
// skipped, plus everything needed to know what its outputs were so they can be filtered
// against on the next run.
type TaskExecutionRecord struct {
	// RecordVersion is the schema version this record was written with. A history
	// repository refuses to treat a record with a mismatched version as history.
	RecordVersion int

	// TaskPath identifies the task this record belongs to.
	TaskPath string

	// BuildInvocationID identifies the build run that produced this record: every task
	// executed or skipped in the same run shares the same value. It has no bearing on
	// the up-to-date check; it exists so a later inspection (log correlation, cache
	// debugging) can tell which records came from the same run.
	BuildInvocationID string

	// Successful reports whether the task's actions completed without error. A failed
	// task is still persisted, so a later build can report what changed since the last
	// attempt, but it can never be used to skip a subsequent execution.
	Successful bool

	// Implementation is the chain of actions that ran, in order.
	Implementation ImplementationSnapshots

	// InputProperties holds structural fingerprints of the task's non-file input
	// property values, keyed by declared property name.
	InputProperties ValueSnapshotMap

	// InputFiles holds a FileTreeSnapshot per declared file input property.
	InputFiles map[string]*FileTreeSnapshot

	// DiscoveredInputs holds the paths the task itself reported reading while its
	// actions ran (for example, an included header found by a compiler), rather than
	// declared up front. It is nil for a task that never reports discovered inputs.
	// CurrentExecution fills it by re-observing the previous record's discovered paths,
	// and UpdateCurrent replaces it when the task reports paths after its body has run.
	DiscoveredInputs *FileTreeSnapshot

	// DeclaredOutputFilePaths lists every path pattern declared across all of the
	// task's output properties, independent of which of those properties are
	// cacheable. It is informational: overlap detection and skip comparisons work off
	// the resolved trees in OutputFiles, not this list.
	DeclaredOutputFilePaths []string

	// DetectedOverlappingOutputs records the first foreign write into this task's
	// declared outputs found before this execution started, or nil if none was found.
	DetectedOverlappingOutputs *OverlappingOutputs

	// OutputProperties holds structural fingerprints of the task's non-file output
	// property values, keyed by declared property name. Most tasks have none.
	OutputProperties ValueSnapshotMap

	// OutputFiles holds, per declared output property, the filtered set of paths this
	// execution is responsible for, as produced by FilterOutputProperties. This is what
	// a later execution's overlap detection and output filtering compare against.
	OutputFiles map[string]*FileTreeSnapshot

	// CacheableOutputPropertyNames lists the subset of output property names that are
	// eligible to be restored from a cached copy rather than recomputed. Declared output
	// properties not in this list still participate in overlap detection but are never
	// treated as satisfied by a cache hit.
	CacheableOutputPropertyNames []string
}

// IsCompatibleForSkip reports whether this record and a freshly computed "current state"
// record agree closely enough that a task's actions can be skipped entirely: same
// implementation chain, same input property values, same input file trees, same
// discovered inputs, and same output property values. Output file trees are excluded
// from this comparison; whether recorded outputs still exist and are unmodified on disk
// is a separate check the caller performs against the filesystem, not against history.
func (r *TaskExecutionRecord) IsCompatibleForSkip(current *TaskExecutionRecord) (bool, ChangeReport) {
	var report ChangeReport

	if r == nil || !r.Successful {
		report = append(report, Change{Kind: ChangeNoHistory, Detail: "no successful previous execution"})
		return false, report
	}
	if !r.Implementation.IsUpToDate(current.Implementation) {
		report = append(report, Change{Kind: ChangeImplementation, Detail: "task action implementation changed"})
	}
	if !r.InputProperties.IsUpToDate(current.InputProperties) {
		report = append(report, Change{Kind: ChangeInputProperty, Detail: "an input property value changed"})
	}
	for name, currentTree := range current.InputFiles {
		previousTree, ok := r.InputFiles[name]
		if !ok || previousTree == nil || currentTree == nil || !previousTree.Equal(currentTree) {
			report = append(report, Change{Kind: ChangeInputFiles, PropertyName: name, Detail: "input files changed"})
		}
	}
	for name := range r.InputFiles {
		if _, ok := current.InputFiles[name]; !ok {
			report = append(report, Change{Kind: ChangeInputFiles, PropertyName: name, Detail: "input property removed"})
		}
	}
	if !discoveredInputsUpToDate(r.DiscoveredInputs, current.DiscoveredInputs) {
		report = append(report, Change{Kind: ChangeDiscoveredInputs, Detail: "discovered inputs changed"})
	}
	if !r.OutputProperties.IsUpToDate(current.OutputProperties) {
		report = append(report, Change{Kind: ChangeOutputProperty, Detail: "an output property value changed"})
	}

	return len(report) == 0, report
}

// discoveredInputsUpToDate compares a previous execution's discovered-inputs snapshot
// against one freshly observed at the same paths. Both nil means the task has never
// reported any discovered inputs, which is up to date by definition; one nil and the
// other not means the set of paths being tracked changed, which is never up to date.
func discoveredInputsUpToDate(previous, current *FileTreeSnapshot) bool {
	if previous == nil && current == nil {
		return true
	}
	if previous == nil || current == nil {
		return false
	}
	return previous.Equal(current)
}

// AfterPreviousOutputTrees exposes OutputFiles for use as the afterPreviousExecution
// argument to DetectOverlappingOutputs and FilterOutputProperties. It returns nil, not an
// empty map, when the record itself is nil, preserving the null-vs-empty distinction those
// functions depend on.
func (r *TaskExecutionRecord) AfterPreviousOutputTrees() map[string]*FileTreeSnapshot {
	if r == nil {
		return nil
	}
	return r.OutputFiles
}
