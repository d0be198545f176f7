package domain

import "sort"

// FilterOutputSnapshot decides, for a single output property, which paths observed after
// a task ran actually belong to that task's outputs. A build directory can
// accumulate files this task never wrote: stale files from a previous execution with
// different inputs, or files placed there by an unrelated task sharing the directory.
// Only paths this task is responsible for should be recorded as its outputs, or a later
// up-to-date check would be fooled by content it never produced.
//
// Three snapshots participate:
//   - afterPreviousExecution: what this task recorded as its own outputs last time it ran
//     (nil if it has never run).
//   - beforeExecution: what existed at this path immediately before this execution started.
//   - current: what exists now, after this execution finished.
//
// Each path in current is classified in order:
//  1. Missing content (the path was created then deleted during execution) is dropped.
//  2. A path absent from beforeExecution is newly created by this execution: keep.
//  3. A path whose content or modification time differs from beforeExecution was touched
//     by this execution: keep. Metadata is compared, not just content, so a file rewritten
//     with identical bytes but a new modtime is still classified as touched rather than
//     silently folded into the untouched case below.
//  4. A path present in afterPreviousExecution was already this task's own output: keep.
//  5. Otherwise the path pre-existed, was left untouched, and was never this task's own
//     output: drop it as foreign.
//
// If every path in current is kept, the result is exactly current: it is returned as-is
// rather than copied into a new snapshot.
func FilterOutputSnapshot(afterPreviousExecution, beforeExecution, current *FileTreeSnapshot) *FileTreeSnapshot {
	if current == nil {
		current = EmptyFileTreeSnapshot()
	}
	if beforeExecution == nil {
		beforeExecution = EmptyFileTreeSnapshot()
	}

	paths := sortedElements(current)
	kept := make([]NormalizedFileSnapshot, 0, len(paths))
	for _, absPath := range paths {
		entry, _ := current.Get(absPath)

		if entry.Content.IsMissing() {
			continue
		}

		beforeEntry, existedBefore := beforeExecution.Get(absPath)
		if !existedBefore {
			kept = append(kept, entry)
			continue
		}
		if !beforeEntry.Content.IsContentAndMetadataUpToDate(entry.Content) {
			kept = append(kept, entry)
			continue
		}

		if afterPreviousExecution != nil {
			if _, ownedPreviously := afterPreviousExecution.Get(absPath); ownedPreviously {
				kept = append(kept, entry)
				continue
			}
		}
		// else: pre-existing, untouched, not previously owned by this task. Drop.
	}

	// If every post-execution entry was kept, the filtered tree is exactly the
	// post-execution tree: return current itself rather than a newly built copy.
	if len(kept) == len(paths) {
		return current
	}

	return NewAssignedOutputSnapshot(kept)
}

// FilterOutputProperties applies FilterOutputSnapshot independently to each declared
// output property. Filtering happens per property, not globally across all outputs
// combined, because a file's provenance is only meaningful relative to the property that
// declared it: two properties may legitimately point at overlapping directories with
// different ownership histories.
func FilterOutputProperties(afterPreviousExecution, beforeExecution, current map[string]*FileTreeSnapshot) map[string]*FileTreeSnapshot {
	names := make(map[string]struct{}, len(current))
	for name := range current {
		names[name] = struct{}{}
	}
	sortedNames := make([]string, 0, len(names))
	for name := range names {
		sortedNames = append(sortedNames, name)
	}
	sort.Strings(sortedNames)

	filtered := make(map[string]*FileTreeSnapshot, len(sortedNames))
	for _, name := range sortedNames {
		filtered[name] = FilterOutputSnapshot(afterPreviousExecution[name], beforeExecution[name], current[name])
	}
	return filtered
}
