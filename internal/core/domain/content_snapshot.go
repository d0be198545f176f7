package domain

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// ContentKind identifies which of the three content-snapshot cases a ContentSnapshot holds.
type ContentKind uint8

const (
	// ContentMissing means the path did not exist at snapshot time.
	ContentMissing ContentKind = iota
	// ContentDirectory means the path was a directory. A directory carries no content
	// of its own; only its existence is significant.
	ContentDirectory
	// ContentRegularFile means the path was a regular file with hashed content.
	ContentRegularFile
)

// directorySignature is a fixed hash standing in for "this is a directory", computed once
// so aggregate hashes are well-defined even for tree shapes with no file content, exactly
// as Gradle's DirContentSnapshot derives its signature from its own type name.
var directorySignature = xxhash.Sum64String("go.trai.ch/bob/internal/core/domain.ContentSnapshot.Directory")

// ContentSnapshot represents a file's observed content and type at a point in time.
// It is a tagged variant with exactly three cases; there is no open-world extension
// point, so comparators exhaust the cases directly instead of dispatching polymorphically.
type ContentSnapshot struct {
	kind    ContentKind
	hash    uint64
	modTime time.Time
	hasTime bool
}

// Directory is the singleton content snapshot for "path exists and is a directory".
// It is immutable and structurally unique, so a single shared value is safe to reuse.
var Directory = ContentSnapshot{kind: ContentDirectory, hash: directorySignature}

// Missing is the singleton content snapshot for "path does not exist".
var Missing = ContentSnapshot{kind: ContentMissing}

// NewRegularFileSnapshot builds a content snapshot for a regular file from its content hash.
func NewRegularFileSnapshot(hash uint64) ContentSnapshot {
	return ContentSnapshot{kind: ContentRegularFile, hash: hash}
}

// NewRegularFileSnapshotWithModTime builds a regular-file snapshot that additionally
// records a captured modification time, enabling the stricter
// IsContentAndMetadataUpToDate comparison.
func NewRegularFileSnapshotWithModTime(hash uint64, modTime time.Time) ContentSnapshot {
	return ContentSnapshot{kind: ContentRegularFile, hash: hash, modTime: modTime, hasTime: true}
}

// Kind reports which variant this snapshot holds.
func (c ContentSnapshot) Kind() ContentKind {
	return c.kind
}

// IsMissing reports whether this snapshot represents an absent path.
func (c ContentSnapshot) IsMissing() bool {
	return c.kind == ContentMissing
}

// Hash returns the content hash for a regular file, or the fixed directory signature
// for a directory. It is zero for a missing entry.
func (c ContentSnapshot) Hash() uint64 {
	return c.hash
}

// IsContentUpToDate reports whether two content snapshots are equal for cache-invalidation
// purposes: two regular files are equal iff their hashes are equal, directories are always
// equal to directories, missing is always equal to missing, and any other pairing differs.
func (c ContentSnapshot) IsContentUpToDate(other ContentSnapshot) bool {
	if c.kind != other.kind {
		return false
	}
	if c.kind == ContentRegularFile {
		return c.hash == other.hash
	}
	return true
}

// IsContentAndMetadataUpToDate is the stricter comparison: for
// directories and missing entries it is identical to IsContentUpToDate, since neither
// carries metadata worth comparing. For regular files, when both sides captured a
// modification time it is compared in addition to content.
func (c ContentSnapshot) IsContentAndMetadataUpToDate(other ContentSnapshot) bool {
	if !c.IsContentUpToDate(other) {
		return false
	}
	if c.kind != ContentRegularFile {
		return true
	}
	if c.hasTime && other.hasTime {
		return c.modTime.Equal(other.modTime)
	}
	return true
}

// String renders a short diagnostic form of the snapshot.
func (c ContentSnapshot) String() string {
	switch c.kind {
	case ContentDirectory:
		return "DIR"
	case ContentMissing:
		return "MISSING"
	default:
		return "FILE"
	}
}
