package domain

// Task represents a unit of work in the build system: a command to run, the file and
// environment inputs it depends on, and the file outputs it produces.
// It uses InternedString for fields that are frequently repeated to save memory.
type Task struct {
	Name         InternedString
	Command      []string
	Dependencies []InternedString
	Environment  map[string]string
	WorkingDir   InternedString

	// Inputs and Outputs are glob patterns for the task's default, unnamed input and
	// output property. Most tasks only need one input property and one output
	// property, so a bob.yaml task with plain `input:`/`target:` lists populates only
	// these and gets a single "main" property under the hood.
	Inputs  []InternedString
	Outputs []InternedString

	// InputProperties and OutputProperties name additional, independently tracked
	// file-input and file-output groups beyond the default "main" property. A task
	// that reads a shared config directory and a per-target source directory can
	// declare them as two named input properties so a change to one doesn't get
	// blamed on the other in diagnostics, and so overlap detection and output
	// filtering can reason about them independently.
	InputProperties  map[string][]InternedString
	OutputProperties map[string][]InternedString

	// CacheableOutputProperties lists which of the task's output property names (the
	// default "main" property included) are eligible to be restored from a cached
	// copy. Output properties not listed here still participate in overlap detection
	// but are always recomputed by re-running the task.
	CacheableOutputProperties []InternedString
}

const mainPropertyName = "main"

// InputPropertyPaths returns every declared file-input property, keyed by name, with the
// default "main" property (built from Inputs) included when non-empty.
func (t *Task) InputPropertyPaths() map[string][]InternedString {
	return mergeDefaultProperty(t.Inputs, t.InputProperties)
}

// OutputPropertyPaths returns every declared file-output property, keyed by name, with
// the default "main" property (built from Outputs) included when non-empty.
func (t *Task) OutputPropertyPaths() map[string][]InternedString {
	return mergeDefaultProperty(t.Outputs, t.OutputProperties)
}

func mergeDefaultProperty(defaults []InternedString, named map[string][]InternedString) map[string][]InternedString {
	if len(defaults) == 0 && len(named) == 0 {
		return map[string][]InternedString{}
	}
	out := make(map[string][]InternedString, len(named)+1)
	for name, paths := range named {
		out[name] = paths
	}
	if len(defaults) > 0 {
		out[mainPropertyName] = defaults
	}
	return out
}

// IsOutputCacheable reports whether the named output property is eligible for cache
// restore.
func (t *Task) IsOutputCacheable(propertyName string) bool {
	for _, name := range t.CacheableOutputProperties {
		if name.String() == propertyName {
			return true
		}
	}
	return false
}
