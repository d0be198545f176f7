package history

import (
	"context"
	"errors"
	"sort"

	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/zerr"
)

// History is the per-task façade over a task's execution record. Its four operations are observed in a
// fixed order by the executor: PreviousExecution, CurrentExecution, one of
// UpdateCurrent/UpdateCurrentWithOutputs, then Persist. A History is used by exactly one
// goroutine for exactly one task execution; it holds no lock of its own, relying on the
// external scheduler for cross-task ordering.
type History struct {
	repo *Repository
	task *domain.Task

	loadedPrevious bool
	previous       *domain.TaskExecutionRecord

	current *domain.TaskExecutionRecord

	// beforeExecution captures each declared output property's file tree as observed
	// at CurrentExecution time, before the task body runs. It is the "before" argument
	// FilterOutputSnapshot needs once the task has finished and outputs are
	// re-snapshotted.
	beforeExecution map[string]*domain.FileTreeSnapshot

	overlap    domain.OverlappingOutputs
	hasOverlap bool
}

// PreviousExecution returns the most recently persisted record for this task, or nil if
// none exists (including one written by an incompatible schema version, and one the
// store failed to read with domain.ErrStoreRead). It loads at most once per History
// instance.
func (h *History) PreviousExecution(ctx context.Context) (*domain.TaskExecutionRecord, error) {
	if h.loadedPrevious {
		return h.previous, nil
	}
	record, err := h.repo.store.Get(ctx, h.task.Name.String())
	if errors.Is(err, domain.ErrStoreRead) {
		record, err = nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreRead.Error()), "task", h.task.Name.String())
	}
	h.previous = record
	h.loadedPrevious = true
	return h.previous, nil
}

// CurrentExecution lazily builds the in-progress record for this execution: its
// implementation fingerprint, its declared value properties, and its declared input file
// trees, snapshotted now. It also captures the pre-execution state of every declared
// output property and runs overlap detection against the previous record's outputs,
// since both depend only on state available before the task body runs. The previous
// record is loaded first so each value property can be snapshotted against its own prior
// value, letting an unchanged property reuse the previous snapshot instance. File
// snapshotters are always invoked in full regardless of which value properties were
// reused, since file content can change without any declared value changing.
func (h *History) CurrentExecution(ctx context.Context) (*domain.TaskExecutionRecord, error) {
	if h.current != nil {
		return h.current, nil
	}

	previous, err := h.PreviousExecution(ctx)
	if err != nil {
		return nil, err
	}

	implementation, err := h.repo.hasher.HashImplementation(h.task)
	if err != nil {
		return nil, err
	}

	var previousInputProperties domain.ValueSnapshotMap
	if previous != nil {
		previousInputProperties = previous.InputProperties
	}
	inputProperties, err := h.snapshotValueProperties(previousInputProperties)
	if err != nil {
		return nil, err
	}

	inputFiles, err := h.snapshotFileProperties(ctx, propertyPatterns(h.task.InputPropertyPaths()))
	if err != nil {
		return nil, err
	}

	before, err := h.snapshotFileProperties(ctx, propertyPatterns(h.task.OutputPropertyPaths()))
	if err != nil {
		return nil, err
	}
	h.beforeExecution = before

	h.overlap, h.hasOverlap = domain.DetectOverlappingOutputs(previous.AfterPreviousOutputTrees(), before)
	var detectedOverlap *domain.OverlappingOutputs
	if h.hasOverlap {
		overlap := h.overlap
		detectedOverlap = &overlap
	}

	var previousDiscoveredInputs *domain.FileTreeSnapshot
	if previous != nil {
		previousDiscoveredInputs = previous.DiscoveredInputs
	}
	discoveredInputs, err := h.replayDiscoveredInputs(ctx, previousDiscoveredInputs)
	if err != nil {
		return nil, err
	}

	cacheable := make([]string, len(h.task.CacheableOutputProperties))
	for i, name := range h.task.CacheableOutputProperties {
		cacheable[i] = name.String()
	}

	h.current = &domain.TaskExecutionRecord{
		RecordVersion:                domain.CurrentRecordVersion,
		TaskPath:                     h.task.Name.String(),
		BuildInvocationID:            h.repo.buildInvocationID,
		Successful:                   false,
		Implementation:               implementation,
		InputProperties:              inputProperties,
		InputFiles:                   inputFiles,
		DiscoveredInputs:             discoveredInputs,
		DeclaredOutputFilePaths:      flattenPaths(h.task.OutputPropertyPaths()),
		DetectedOverlappingOutputs:   detectedOverlap,
		OutputProperties:             domain.ValueSnapshotMap{},
		OutputFiles:                  nil,
		CacheableOutputPropertyNames: cacheable,
	}
	return h.current, nil
}

// DetectedOverlap reports the overlap, if any, found while building CurrentExecution.
// CurrentExecution must have been called first; before it has, this reports no overlap.
func (h *History) DetectedOverlap() (domain.OverlappingOutputs, bool) {
	return h.overlap, h.hasOverlap
}

// UpdateCurrent re-snapshots the task's declared output properties, filters each against
// the corresponding previous-execution and before-execution trees, records whether the
// task body completed successfully, and, if the task reported any discovered input paths
// while it ran, re-snapshots exactly those paths so the next build can tell whether they
// are still up to date without needing the task to report them again. A task that reports
// no discovered inputs (the common case) keeps whatever CurrentExecution already replayed
// from the previous record.
func (h *History) UpdateCurrent(ctx context.Context, discoveredInputPaths []string, successful bool) error {
	current, err := h.CurrentExecution(ctx)
	if err != nil {
		return err
	}

	after, err := h.snapshotFileProperties(ctx, propertyPatterns(h.task.OutputPropertyPaths()))
	if err != nil {
		return err
	}

	previous, err := h.PreviousExecution(ctx)
	if err != nil {
		return err
	}

	if len(discoveredInputPaths) > 0 {
		discovered, err := h.repo.fileSnapshotter.SnapshotPaths(ctx, discoveredInputPaths, domain.Unordered, domain.RelativeToRoot)
		if err != nil {
			return zerr.With(err, "property", "discoveredInputs")
		}
		current.DiscoveredInputs = discovered
	}

	current.OutputFiles = domain.FilterOutputProperties(previous.AfterPreviousOutputTrees(), h.beforeExecution, after)
	current.Successful = successful
	return nil
}

// UpdateCurrentWithOutputs is the variant of UpdateCurrent used when the output file
// trees are already known from elsewhere (e.g. an artifact-restore path) rather than
// observed fresh from disk; no re-snapshotting or filtering happens, the given trees are
// recorded as-is.
func (h *History) UpdateCurrentWithOutputs(
	ctx context.Context,
	outputs map[string]*domain.FileTreeSnapshot,
	successful bool,
) error {
	current, err := h.CurrentExecution(ctx)
	if err != nil {
		return err
	}
	current.OutputFiles = outputs
	current.Successful = successful
	return nil
}

// Persist writes the finalized current record as the new most recent execution for this
// task. CurrentExecution (and one of the UpdateCurrent variants) must have been called
// first. If the build is cancelled before Persist is reached, the previous record
// remains authoritative; no partial record is ever committed, since Persist is the only
// operation that reaches the store.
func (h *History) Persist(ctx context.Context) error {
	if h.current == nil {
		err := zerr.With(domain.ErrStoreWrite, "task", h.task.Name.String())
		return zerr.With(err, "cause", "persist called before current execution was built")
	}
	return h.repo.store.Put(ctx, h.task.Name.String(), h.current)
}

func (h *History) snapshotValueProperties(previous domain.ValueSnapshotMap) (domain.ValueSnapshotMap, error) {
	values := map[string]any{
		"command":     h.task.Command,
		"environment": h.task.Environment,
		"workingDir":  h.task.WorkingDir.String(),
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	snapshots := make(domain.ValueSnapshotMap, len(values))
	for _, name := range names {
		// previous[name] is the zero ValueSnapshot when there is no prior record or the
		// property is new; SnapshotWithPrevious never mistakes that for a real match
		// unless the freshly computed hash happens to be the zero hash too.
		snap, err := h.repo.valueSnapshotter.SnapshotWithPrevious(values[name], previous[name])
		if err != nil {
			return nil, zerr.With(err, "property", name)
		}
		snapshots[name] = snap
	}
	return snapshots, nil
}

// replayDiscoveredInputs re-observes the paths recorded in a previous execution's
// discovered-inputs snapshot, without asking the task to report them again. This is what
// lets IsCompatibleForSkip judge whether previously discovered inputs are still current
// before the task has had a chance to run and report them itself. A task with no
// discovered-inputs history yields nil, same as it did last time.
func (h *History) replayDiscoveredInputs(
	ctx context.Context,
	previous *domain.FileTreeSnapshot,
) (*domain.FileTreeSnapshot, error) {
	if previous == nil {
		return nil, nil
	}
	paths := previous.Elements()
	if len(paths) == 0 {
		return domain.EmptyFileTreeSnapshot(), nil
	}
	discovered, err := h.repo.fileSnapshotter.SnapshotPaths(ctx, paths, domain.Unordered, domain.RelativeToRoot)
	if err != nil {
		return nil, zerr.With(err, "property", "discoveredInputs")
	}
	return discovered, nil
}

func (h *History) snapshotFileProperties(
	ctx context.Context,
	properties map[string][]string,
) (map[string]*domain.FileTreeSnapshot, error) {
	trees := make(map[string]*domain.FileTreeSnapshot, len(properties))
	for name, patterns := range properties {
		tree, err := h.repo.fileSnapshotter.Snapshot(ctx, h.repo.root, patterns, domain.Unordered, domain.RelativeToRoot)
		if err != nil {
			return nil, zerr.With(err, "property", name)
		}
		trees[name] = tree
	}
	return trees, nil
}
