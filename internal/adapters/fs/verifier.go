package fs

import (
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
)

var _ ports.Verifier = (*Verifier)(nil)

// Verifier checks that a recorded output tree still matches what's on disk.
type Verifier struct{}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// VerifyOutputs reports whether every path in expected is present with matching content.
// root is accepted for interface symmetry with other adapters; expected already carries
// absolute paths from when it was snapshotted.
func (v *Verifier) VerifyOutputs(root string, expected *domain.FileTreeSnapshot) (bool, error) {
	if expected == nil {
		return true, nil
	}
	for _, entry := range expected.Snapshots() {
		if entry.Content.IsMissing() {
			continue
		}
		current, err := snapshotPath(entry.AbsolutePath)
		if err != nil {
			return false, err
		}
		if !entry.Content.IsContentUpToDate(current) {
			return false, nil
		}
	}
	return true, nil
}
