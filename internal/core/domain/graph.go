// Package domain contains the core domain models and business logic for the task
// incremental-execution engine: the dependency graph, content and value snapshots, and
// the execution record that ties them together.
package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Graph represents a dependency graph of tasks.
type Graph struct {
	tasks          map[InternedString]Task
	executionOrder []InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks: make(map[InternedString]Task),
	}
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same name already exists.
func (g *Graph) AddTask(t *Task) error {
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task_name", t.Name.String())
	}
	g.tasks[t.Name] = *t
	return nil
}

// GetTask looks up a task by name.
func (g *Graph) GetTask(name InternedString) (Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Len reports the number of tasks in the graph.
func (g *Graph) Len() int {
	return len(g.tasks)
}

// TaskCount is an alias for Len, read more naturally at scheduler call sites that size a
// worker pool's bookkeeping structures by the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return g.Len()
}

// Dependents returns the names of every task that directly depends on name, sorted for
// determinism. The scheduler uses this to decrement a dependent's in-degree counter when
// name finishes, without needing to invert the whole graph up front.
func (g *Graph) Dependents(name InternedString) []InternedString {
	var out []InternedString
	for taskName, task := range g.tasks {
		for _, dep := range task.Dependencies {
			if dep == name {
				out = append(out, taskName)
				break
			}
		}
	}
	slices.SortFunc(out, func(a, b InternedString) int {
		return compareStrings(a.String(), b.String())
	})
	return out
}

// Subgraph returns a new Graph containing only targets and every task they transitively
// depend on. It does not itself validate the result; call Validate on the returned graph
// before using it.
func (g *Graph) Subgraph(targets []InternedString) (*Graph, error) {
	include := make(map[InternedString]bool, len(targets))
	var visit func(name InternedString) error
	visit = func(name InternedString) error {
		if include[name] {
			return nil
		}
		task, ok := g.tasks[name]
		if !ok {
			return zerr.With(zerr.Wrap(ErrMissingDependency, "unknown task"), "dependency", name.String())
		}
		include[name] = true
		for _, dep := range task.Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}

	for _, target := range targets {
		if err := visit(target); err != nil {
			return nil, err
		}
	}

	out := NewGraph()
	for name := range include {
		task := g.tasks[name]
		if err := out.AddTask(&task); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Validate checks for cycles in the graph using a topological sort.
// It populates the executionOrder slice if successful.
//
// Root tasks are visited in sorted-name order so that disconnected components of the
// graph always produce the same execution order across runs, which in turn keeps
// diagnostic output (and any test asserting on it) stable regardless of Go's randomized
// map iteration.
func (g *Graph) Validate() error {
	g.executionOrder = make([]InternedString, 0, len(g.tasks))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		task, exists := g.tasks[u]
		if !exists {
			return zerr.With(zerr.Wrap(ErrMissingDependency, "unknown task"), "dependency", u.String())
		}

		deps := make([]InternedString, len(task.Dependencies))
		copy(deps, task.Dependencies)
		slices.SortFunc(deps, func(a, b InternedString) int {
			return compareStrings(a.String(), b.String())
		})

		for _, dep := range deps {
			if visited[dep] == 1 {
				return g.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	names := make([]InternedString, 0, len(g.tasks))
	for name := range g.tasks {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b InternedString) int {
		return compareStrings(a.String(), b.String())
	})

	for _, name := range names {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator that yields tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}
