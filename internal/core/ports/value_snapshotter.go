package ports

import "go.trai.ch/bob/internal/core/domain"

// ValueSnapshotter produces a structural fingerprint of an arbitrary, non-file task
// property value: booleans, strings, numbers, and structs/maps/slices
// composed of them.
//
//go:generate go run go.uber.org/mock/mockgen -source=value_snapshotter.go -destination=mocks/mock_value_snapshotter.go -package=mocks
type ValueSnapshotter interface {
	// Snapshot fingerprints value. It returns ErrInputSerialization if value contains
	// something that cannot be structurally hashed, such as a channel or a function.
	Snapshot(value any) (domain.ValueSnapshot, error)

	// SnapshotWithPrevious fingerprints value like Snapshot, but when the result is
	// structurally equal to previous it returns previous itself rather than the freshly
	// built snapshot. This is the value-snapshot identity short-circuit: a caller that
	// threads previous execution records through this method gets back the exact same
	// snapshot instance for a property that has not changed, letting it detect the
	// unchanged case with a single comparison instead of re-deriving it later.
	SnapshotWithPrevious(value any, previous domain.ValueSnapshot) (domain.ValueSnapshot, error)
}
