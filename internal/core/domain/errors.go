package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrNoTargetsSpecified is returned when a build is run without any requested targets.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrInputSerialization is returned when a declared input property value cannot be
	// structurally snapshotted. Fatal to the task that owns the property.
	ErrInputSerialization = zerr.New("input property is not structurally snapshottable")

	// ErrSnapshotting is returned when snapshotting an input or output file tree fails
	// due to an I/O error. Fatal to the task.
	ErrSnapshotting = zerr.New("failed to snapshot files")

	// ErrStoreRead is returned when the persistent store fails to read a record.
	// Callers treat this as "no previous record" rather than propagating it.
	ErrStoreRead = zerr.New("failed to read task history")

	// ErrStoreWrite is returned when the persistent store fails to persist a record.
	// Fatal to the build step.
	ErrStoreWrite = zerr.New("failed to write task history")

	// ErrIncompatibleRecordVersion names the case of a stored record written by an older
	// or newer serializer version. The store does not return it: Store.Get reports such a
	// record as absent (a nil record and a nil error).
	ErrIncompatibleRecordVersion = zerr.New("incompatible task history record version")

	// ErrBuildExecutionFailed is returned when one or more tasks failed during a build
	// run. The CLI layer maps it to a non-zero exit code without printing a redundant
	// top-level error, since the scheduler already reported each failing task.
	ErrBuildExecutionFailed = zerr.New("build execution failed")
)
