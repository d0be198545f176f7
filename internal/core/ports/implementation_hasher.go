package ports

import "go.trai.ch/bob/internal/core/domain"

// ImplementationHasher fingerprints the code that will execute a task's actions,
// the Go analogue of Gradle's ClassLoaderHierarchyHasher.
//
//go:generate go run go.uber.org/mock/mockgen -source=implementation_hasher.go -destination=mocks/mock_implementation_hasher.go -package=mocks
type ImplementationHasher interface {
	// HashImplementation fingerprints task's command chain: the resolved executable
	// content, falling back to the command's name when it cannot be resolved on PATH,
	// e.g. for a shell builtin.
	HashImplementation(task *domain.Task) (domain.ImplementationSnapshots, error)
}
