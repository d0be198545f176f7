package ports

import (
	"context"
	"io"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals that a set of tasks is planned for execution.
	EmitPlan(ctx context.Context, taskNames []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
	// SetStatus reports the task lifecycle status this span reached.
	SetStatus(status TaskStatus)
}

// TaskStatus mirrors domain.TaskStatus at the ports boundary so telemetry adapters don't
// need to import the domain package just to report a status.
type TaskStatus string

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// ParentTaskName, when non-empty, links this span to the task that scheduled it.
	ParentTaskName string
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithParentTask sets the parent task name on a span's configuration.
func WithParentTask(name string) SpanOption {
	return func(c *SpanConfig) {
		c.ParentTaskName = name
	}
}
