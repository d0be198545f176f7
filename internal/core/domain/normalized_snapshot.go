package domain

// NormalizedFileSnapshot pairs a content snapshot with the normalized path key the
// comparator treats as identity. AbsolutePath is retained only for diagnostics and for
// replaying a discovered-input set against the filesystem; it plays no part in equality.
type NormalizedFileSnapshot struct {
	AbsolutePath   string
	NormalizedPath string
	Content        ContentSnapshot
}

// NewNormalizedFileSnapshot builds a NormalizedFileSnapshot from an absolute path, a
// normalized key produced by a PathNormalizationStrategy, and its observed content.
func NewNormalizedFileSnapshot(absolutePath, normalizedPath string, content ContentSnapshot) NormalizedFileSnapshot {
	return NormalizedFileSnapshot{
		AbsolutePath:   absolutePath,
		NormalizedPath: normalizedPath,
		Content:        content,
	}
}
