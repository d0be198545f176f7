// Package valuesnap implements structural fingerprinting of non-file task property
// values.
package valuesnap

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ValueSnapshotter = (*Snapshotter)(nil)

// Snapshotter fingerprints a value by marshaling it to its canonical JSON form (object
// keys sorted, as encoding/json already guarantees for map[string]any) and hashing the
// resulting bytes. Two values snapshot identically iff their JSON representations are
// byte-identical, which for the plain config values a task declares (bools, strings,
// numbers, and structs/maps/slices of them) coincides with structural equality.
type Snapshotter struct{}

// NewSnapshotter creates a Snapshotter.
func NewSnapshotter() *Snapshotter {
	return &Snapshotter{}
}

// Snapshot fingerprints value.
func (s *Snapshotter) Snapshot(value any) (domain.ValueSnapshot, error) {
	if value == nil {
		return domain.NewValueSnapshot(xxhash.Sum64([]byte("null"))), nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		wrapped := zerr.Wrap(domain.ErrInputSerialization, err.Error())
		return domain.ValueSnapshot{}, zerr.With(wrapped, "type", typeName(value))
	}

	return domain.NewValueSnapshot(xxhash.Sum64(data)), nil
}

// SnapshotWithPrevious fingerprints value and returns previous unchanged when the
// fingerprint matches it, so a caller holding on to the returned snapshot can reuse the
// previous instance instead of a newly allocated but equal one.
func (s *Snapshotter) SnapshotWithPrevious(value any, previous domain.ValueSnapshot) (domain.ValueSnapshot, error) {
	snap, err := s.Snapshot(value)
	if err != nil {
		return domain.ValueSnapshot{}, err
	}
	if snap.IsUpToDate(previous) {
		return previous, nil
	}
	return snap, nil
}

func typeName(value any) string {
	type namer interface{ String() string }
	if n, ok := value.(namer); ok {
		return n.String()
	}
	return "unknown"
}
