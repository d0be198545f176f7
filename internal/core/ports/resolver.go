package ports

// InputResolver defines the interface for resolving glob patterns to concrete file paths.
//
//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_resolver.go -package=mocks -source=resolver.go
type InputResolver interface {
	// ResolveInputs resolves the given input patterns, relative to root, to a list of
	// concrete absolute file paths.
	ResolveInputs(inputs []string, root string) ([]string, error)
}
