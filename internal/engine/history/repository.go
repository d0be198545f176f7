// Package history implements the per-task history façade: the
// collaborator the executor asks for a History, which lazily loads the previous
// execution record, assembles a current one from the snapshotting ports, and persists
// the finalized record once the task body has run.
package history

import (
	"sort"

	"github.com/google/uuid"
	"go.trai.ch/bob/internal/core/domain"
	"go.trai.ch/bob/internal/core/ports"
)

// Repository is the task history repository: given a task, it hands back a
// History bound to that task's identity and this repository's collaborators.
type Repository struct {
	store            ports.HistoryStore
	fileSnapshotter  ports.FileTreeSnapshotter
	valueSnapshotter ports.ValueSnapshotter
	hasher           ports.ImplementationHasher
	root             string

	// buildInvocationID identifies this Repository's run. It is generated once, at
	// construction, since a Repository is built fresh for every invocation of the
	// engine and every task executed through it shares the same run.
	buildInvocationID string
}

// NewRepository builds a Repository. root is the directory input/output glob patterns
// are resolved against and file paths are normalized relative to.
func NewRepository(
	store ports.HistoryStore,
	fileSnapshotter ports.FileTreeSnapshotter,
	valueSnapshotter ports.ValueSnapshotter,
	hasher ports.ImplementationHasher,
	root string,
) *Repository {
	return &Repository{
		store:             store,
		fileSnapshotter:   fileSnapshotter,
		valueSnapshotter:  valueSnapshotter,
		hasher:            hasher,
		root:              root,
		buildInvocationID: uuid.NewString(),
	}
}

// GetHistory returns the History for task. The previous and current records are not
// loaded or built until first asked for.
func (r *Repository) GetHistory(task *domain.Task) *History {
	return &History{repo: r, task: task}
}

func propertyPatterns(paths map[string][]domain.InternedString) map[string][]string {
	out := make(map[string][]string, len(paths))
	for name, patterns := range paths {
		out[name] = internedToStrings(patterns)
	}
	return out
}

// flattenPaths merges every property's declared path patterns into one sorted, deduplicated
// list, used to populate TaskExecutionRecord.DeclaredOutputFilePaths from all output
// properties regardless of which are cacheable.
func flattenPaths(paths map[string][]domain.InternedString) []string {
	seen := make(map[string]struct{})
	for _, patterns := range paths {
		for _, p := range patterns {
			seen[p.String()] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func internedToStrings(vs []domain.InternedString) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}
