package ports

import "go.trai.ch/bob/internal/core/domain"

// Verifier defines the interface for checking that recorded output paths still exist and
// match a recorded output tree, without doing a full re-snapshot of the whole workspace.
//
//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_verifier.go -package=mocks -source=verifier.go
type Verifier interface {
	// VerifyOutputs reports whether every path recorded in expected is present under
	// root with matching content. Used to decide whether a compatible-for-skip task
	// can actually be skipped, or whether its outputs were tampered with since the
	// last execution and it must be rerun despite otherwise matching history.
	VerifyOutputs(root string, expected *domain.FileTreeSnapshot) (bool, error)
}
