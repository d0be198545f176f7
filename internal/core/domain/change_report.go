package domain

// ChangeReasonKind classifies why a task was not considered up to date. It exists purely
// for diagnostics: schedulers and CLI output use it to explain a decision, it plays no
// part in the decision itself.
type ChangeReasonKind uint8

const (
	// ChangeNoHistory means the task has no compatible previous execution to compare
	// against at all.
	ChangeNoHistory ChangeReasonKind = iota
	// ChangeImplementation means the chain of actions that would run differs from what
	// ran last time.
	ChangeImplementation
	// ChangeInputProperty means a non-file input property value differs.
	ChangeInputProperty
	// ChangeInputFiles means an input file tree differs, was added, or was removed.
	ChangeInputFiles
	// ChangeDiscoveredInputs means the set of inputs the task itself reported using
	// during its previous execution no longer matches what is observed now.
	ChangeDiscoveredInputs
	// ChangeOutputProperty means a non-file output property value differs.
	ChangeOutputProperty
	// ChangeOutputMissing means a previously recorded output path is no longer present.
	ChangeOutputMissing
	// ChangeOutputModified means a previously recorded output path was modified outside
	// of this task, since the last time it ran.
	ChangeOutputModified
	// ChangeOverlappingOutputs means another task or process has written into this
	// task's declared output location.
	ChangeOverlappingOutputs
)

// String renders the reason kind for log output.
func (k ChangeReasonKind) String() string {
	switch k {
	case ChangeNoHistory:
		return "no-history"
	case ChangeImplementation:
		return "implementation-changed"
	case ChangeInputProperty:
		return "input-property-changed"
	case ChangeInputFiles:
		return "input-files-changed"
	case ChangeDiscoveredInputs:
		return "discovered-inputs-changed"
	case ChangeOutputProperty:
		return "output-property-changed"
	case ChangeOutputMissing:
		return "output-missing"
	case ChangeOutputModified:
		return "output-modified"
	case ChangeOverlappingOutputs:
		return "overlapping-outputs"
	default:
		return "unknown"
	}
}

// Change is a single reason a task was, or was not, considered up to date.
type Change struct {
	Kind         ChangeReasonKind
	PropertyName string
	Path         string
	Detail       string
}

// ChangeReport is the ordered set of reasons behind an up-to-date decision. An empty
// report means the task was found fully up to date.
type ChangeReport []Change

// IsUpToDate reports whether the report is empty, i.e. no reason to re-run was found.
func (r ChangeReport) IsUpToDate() bool {
	return len(r) == 0
}
