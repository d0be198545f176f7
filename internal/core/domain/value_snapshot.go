package domain

// ValueSnapshot is an opaque structural fingerprint of a non-file task property value:
// a boolean flag, a version string, a parsed config struct. It carries
// no reference to the original value, only enough information to answer "is this the
// same value as before" without retaining anything that would pin the value in memory
// or leak its contents into a diagnostic.
type ValueSnapshot struct {
	hash uint64
}

// NewValueSnapshot wraps a structural hash produced by a ValueSnapshotter.
func NewValueSnapshot(hash uint64) ValueSnapshot {
	return ValueSnapshot{hash: hash}
}

// Hash returns the structural fingerprint.
func (v ValueSnapshot) Hash() uint64 {
	return v.hash
}

// IsUpToDate reports whether two value snapshots represent the same structural value.
func (v ValueSnapshot) IsUpToDate(other ValueSnapshot) bool {
	return v.hash == other.hash
}

// ValueSnapshotMap is a named collection of value snapshots, one per declared
// non-file input or output property, keyed by property name.
type ValueSnapshotMap map[string]ValueSnapshot

// IsUpToDate reports whether two property maps agree on every property in both maps.
// A property present in one map but not the other counts as a change: properties are
// declared statically by the task, so an asymmetric key set means the task definition
// itself changed shape between executions.
func (m ValueSnapshotMap) IsUpToDate(other ValueSnapshotMap) bool {
	if len(m) != len(other) {
		return false
	}
	for name, snap := range m {
		otherSnap, ok := other[name]
		if !ok || !snap.IsUpToDate(otherSnap) {
			return false
		}
	}
	return true
}
