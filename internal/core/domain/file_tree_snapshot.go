package domain

import (
	"iter"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// CompareStrategy controls how a FileTreeSnapshot orders its entries for hashing,
// diffing, and serialization.
type CompareStrategy uint8

const (
	// Unordered means two normalized paths are equal regardless of the order the
	// underlying collection produced them in; entries are sorted by normalized path
	// before hashing or serializing so the result is stable.
	Unordered CompareStrategy = iota
	// Ordered means position matters: entries retain insertion order and diffing is
	// positional.
	Ordered
)

// String renders the strategy name for diagnostics.
func (s CompareStrategy) String() string {
	if s == Ordered {
		return "ordered"
	}
	return "unordered"
}

// FileTreeSnapshot is an ordered-or-unordered collection of normalized file snapshots
// with an aggregate hash and a diff operation. Keys are unique absolute
// paths, matching the invariant of §3; FileTreeSnapshot enforces this at construction.
type FileTreeSnapshot struct {
	entries             map[string]NormalizedFileSnapshot
	order               []string
	strategy            CompareStrategy
	assignableToOutputs bool
}

// emptyFileTreeSnapshot is the shared singleton empty tree. It is immutable and
// structurally unique so it always serializes identically.
var emptyFileTreeSnapshot = &FileTreeSnapshot{
	entries:  map[string]NormalizedFileSnapshot{},
	strategy: Unordered,
}

// EmptyFileTreeSnapshot returns the singleton representing an empty file tree.
func EmptyFileTreeSnapshot() *FileTreeSnapshot {
	return emptyFileTreeSnapshot
}

// NewFileTreeSnapshot builds a FileTreeSnapshot from a list of normalized snapshots in
// the order a snapshotter produced them. Later entries for the same absolute path
// overwrite earlier ones, matching map semantics.
func NewFileTreeSnapshot(strategy CompareStrategy, snapshots []NormalizedFileSnapshot) *FileTreeSnapshot {
	if len(snapshots) == 0 {
		if strategy == Unordered {
			return EmptyFileTreeSnapshot()
		}
		return &FileTreeSnapshot{entries: map[string]NormalizedFileSnapshot{}, strategy: strategy}
	}

	entries := make(map[string]NormalizedFileSnapshot, len(snapshots))
	order := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		if _, exists := entries[s.AbsolutePath]; !exists {
			order = append(order, s.AbsolutePath)
		}
		entries[s.AbsolutePath] = s
	}

	return &FileTreeSnapshot{
		entries:             entries,
		order:               order,
		strategy:            strategy,
		assignableToOutputs: false,
	}
}

// NewAssignedOutputSnapshot builds an Unordered, "assigned-to-outputs" tree, the shape
// the output filter constructs when it must claim a subset of entries.
func NewAssignedOutputSnapshot(snapshots []NormalizedFileSnapshot) *FileTreeSnapshot {
	t := NewFileTreeSnapshot(Unordered, snapshots)
	if len(snapshots) == 0 {
		return t
	}
	t.assignableToOutputs = true
	return t
}

// Strategy reports the tree's compare strategy.
func (t *FileTreeSnapshot) Strategy() CompareStrategy {
	return t.strategy
}

// AssignableToOutputs reports whether this tree was produced by the output filter as the
// subset of entries this task is entitled to claim as its own outputs.
func (t *FileTreeSnapshot) AssignableToOutputs() bool {
	return t.assignableToOutputs
}

// Snapshots returns the entries keyed by absolute path, as stored. Callers must treat the
// returned map as read-only.
func (t *FileTreeSnapshot) Snapshots() map[string]NormalizedFileSnapshot {
	if t == nil {
		return map[string]NormalizedFileSnapshot{}
	}
	return t.entries
}

// Len reports the number of entries in the tree.
func (t *FileTreeSnapshot) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Get looks up an entry by absolute path.
func (t *FileTreeSnapshot) Get(absolutePath string) (NormalizedFileSnapshot, bool) {
	if t == nil {
		return NormalizedFileSnapshot{}, false
	}
	s, ok := t.entries[absolutePath]
	return s, ok
}

// Elements returns the absolute paths of every entry, in the order implied by the tree's
// strategy: insertion order when Ordered, sorted order when Unordered. This is what
// discovered-input replay walks to re-check a previously observed input set.
func (t *FileTreeSnapshot) Elements() []string {
	if t == nil || len(t.entries) == 0 {
		return nil
	}
	if t.strategy == Ordered {
		out := make([]string, len(t.order))
		copy(out, t.order)
		return out
	}
	out := make([]string, 0, len(t.entries))
	for path := range t.entries {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Hash computes the aggregate 64-bit xxhash over (strategy tag, then entries in the order
// implied by the strategy, each contributing normalized path, content kind and content
// hash). It is a 64-bit digest; no 128-bit form is computed.
func (t *FileTreeSnapshot) Hash() uint64 {
	h := xxhash.New()
	_, _ = h.Write([]byte{byte(t.Strategy())})
	for _, absPath := range t.Elements() {
		entry := t.entries[absPath]
		_, _ = h.WriteString(entry.NormalizedPath)
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte{byte(entry.Content.Kind())})
		var buf [8]byte
		putUint64(buf[:], entry.Content.Hash())
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

func putUint64(buf []byte, v uint64) {
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
}

// Equal reports structural equality: for Unordered trees the set of (normalized path,
// content) pairs must match regardless of order; for Ordered trees the sequence must
// match position for position.
func (t *FileTreeSnapshot) Equal(other *FileTreeSnapshot) bool {
	if t.Len() != other.Len() {
		return false
	}
	if t.Strategy() != other.Strategy() {
		return false
	}
	if t.Strategy() == Ordered {
		a, b := t.Elements(), other.Elements()
		for i := range a {
			ea, eb := t.entries[a[i]], other.entries[b[i]]
			if ea.NormalizedPath != eb.NormalizedPath || !ea.Content.IsContentUpToDate(eb.Content) {
				return false
			}
		}
		return true
	}
	byNormalized := make(map[string]ContentSnapshot, t.Len())
	for _, e := range t.entries {
		byNormalized[e.NormalizedPath] = e.Content
	}
	for _, e := range other.entries {
		content, ok := byNormalized[e.NormalizedPath]
		if !ok || !content.IsContentUpToDate(e.Content) {
			return false
		}
	}
	return true
}

// ChangeKind identifies one entry of a FileTreeSnapshot diff.
type ChangeKind uint8

const (
	// Added means the path is present in the current tree but not the previous one.
	Added ChangeKind = iota
	// Removed means the path was present previously but is absent now.
	Removed
	// Modified means the path is present in both, with different content.
	Modified
)

// String renders the change kind for reporting.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "modified"
	}
}

// FileChange describes a single path's transition between two FileTreeSnapshots.
type FileChange struct {
	Kind           ChangeKind
	NormalizedPath string
	Before         NormalizedFileSnapshot
	After          NormalizedFileSnapshot
}

// Diff yields the changes needed to go from previous to t. For Unordered trees, two
// entries are compared by normalized path; for Ordered trees, by position.
func (t *FileTreeSnapshot) Diff(previous *FileTreeSnapshot) iter.Seq[FileChange] {
	if t.Strategy() == Ordered {
		return t.diffOrdered(previous)
	}
	return t.diffUnordered(previous)
}

func (t *FileTreeSnapshot) diffUnordered(previous *FileTreeSnapshot) iter.Seq[FileChange] {
	return func(yield func(FileChange) bool) {
		prevByPath := make(map[string]NormalizedFileSnapshot, previous.Len())
		for _, e := range previous.Snapshots() {
			prevByPath[e.NormalizedPath] = e
		}
		curByPath := make(map[string]NormalizedFileSnapshot, t.Len())
		for _, e := range t.Snapshots() {
			curByPath[e.NormalizedPath] = e
		}

		paths := make([]string, 0, len(prevByPath)+len(curByPath))
		seen := make(map[string]bool, len(paths))
		for _, e := range t.Elements() {
			p := t.entries[e].NormalizedPath
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
		for _, e := range previous.Elements() {
			p := previous.entries[e].NormalizedPath
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
		sort.Strings(paths)

		for _, p := range paths {
			before, hadBefore := prevByPath[p]
			after, hasAfter := curByPath[p]
			switch {
			case hadBefore && !hasAfter:
				if !yield(FileChange{Kind: Removed, NormalizedPath: p, Before: before}) {
					return
				}
			case !hadBefore && hasAfter:
				if !yield(FileChange{Kind: Added, NormalizedPath: p, After: after}) {
					return
				}
			case hadBefore && hasAfter && !before.Content.IsContentUpToDate(after.Content):
				if !yield(FileChange{Kind: Modified, NormalizedPath: p, Before: before, After: after}) {
					return
				}
			}
		}
	}
}

func (t *FileTreeSnapshot) diffOrdered(previous *FileTreeSnapshot) iter.Seq[FileChange] {
	return func(yield func(FileChange) bool) {
		curPaths, prevPaths := t.Elements(), previous.Elements()
		max := len(curPaths)
		if len(prevPaths) > max {
			max = len(prevPaths)
		}
		for i := 0; i < max; i++ {
			switch {
			case i >= len(prevPaths):
				after := t.entries[curPaths[i]]
				if !yield(FileChange{Kind: Added, NormalizedPath: after.NormalizedPath, After: after}) {
					return
				}
			case i >= len(curPaths):
				before := previous.entries[prevPaths[i]]
				if !yield(FileChange{Kind: Removed, NormalizedPath: before.NormalizedPath, Before: before}) {
					return
				}
			default:
				before := previous.entries[prevPaths[i]]
				after := t.entries[curPaths[i]]
				if before.NormalizedPath != after.NormalizedPath || !before.Content.IsContentUpToDate(after.Content) {
					if !yield(FileChange{Kind: Modified, NormalizedPath: after.NormalizedPath, Before: before, After: after}) {
						return
					}
				}
			}
		}
	}
}
