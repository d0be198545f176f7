package domain

import "sort"

// OverlappingOutputs identifies the first output path found to overlap with content this
// task did not itself produce: a file present before the task ran that was not part of
// its own previous execution's recorded outputs, meaning another task or the user wrote
// into a directory this task also claims.
type OverlappingOutputs struct {
	PropertyName string
	AbsolutePath string
}

// DetectOverlappingOutputs compares, per output property, the tree this task produced on
// its previous execution against the tree observed before this execution starts.
//
// A nil entry in afterPreviousExecution means the property has no recorded history (the
// task has never run, or never declared this property before) and is skipped: with
// nothing to compare against, no overlap judgement can be made. This is distinct from an
// explicitly empty tree, which means the task previously produced nothing for that
// property, so every path observed now is foreign.
//
// A path counts as overlapping when it is either absent from the task's own previous
// outputs, or present there but with different content or metadata: a foreign actor that
// overwrote a path this task used to own is still an overlap, even though the path itself
// was previously claimed. A path with no content (deleted before this execution started)
// is never flagged, since there is nothing at that path to collide with.
//
// Detection stops at the first overlapping path, walking properties in sorted name order
// and, within a property, paths in sorted order, so the result is deterministic across
// runs regardless of filesystem enumeration order.
func DetectOverlappingOutputs(afterPreviousExecution, beforeExecution map[string]*FileTreeSnapshot) (OverlappingOutputs, bool) {
	properties := make([]string, 0, len(beforeExecution))
	for name := range beforeExecution {
		properties = append(properties, name)
	}
	sort.Strings(properties)

	for _, property := range properties {
		previous, hasHistory := afterPreviousExecution[property]
		if !hasHistory || previous == nil {
			continue
		}
		current := beforeExecution[property]
		if current == nil {
			continue
		}
		for _, absPath := range sortedElements(current) {
			normalized, _ := current.Get(absPath)
			if normalized.Content.IsMissing() {
				continue
			}
			previousEntry, ownedPreviously := previous.Get(normalized.AbsolutePath)
			if !ownedPreviously {
				return OverlappingOutputs{PropertyName: property, AbsolutePath: normalized.AbsolutePath}, true
			}
			if !previousEntry.Content.IsContentAndMetadataUpToDate(normalized.Content) {
				return OverlappingOutputs{PropertyName: property, AbsolutePath: normalized.AbsolutePath}, true
			}
		}
	}
	return OverlappingOutputs{}, false
}

func sortedElements(t *FileTreeSnapshot) []string {
	elements := t.Elements()
	if t.Strategy() == Ordered {
		sorted := make([]string, len(elements))
		copy(sorted, elements)
		sort.Strings(sorted)
		return sorted
	}
	return elements
}
