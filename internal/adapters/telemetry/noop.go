package telemetry

import (
	"context"

	"go.trai.ch/bob/internal/core/ports"
)

// NoOpTracer is a no-op implementation of ports.Tracer, used in tests and anywhere
// tracing infrastructure isn't configured.
type NoOpTracer struct{}

// NewNoOpTracer creates a new NoOpTracer.
func NewNoOpTracer() *NoOpTracer {
	return &NoOpTracer{}
}

// Start returns ctx unchanged along with a no-op span.
func (t *NoOpTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, &NoOpSpan{}
}

// EmitPlan does nothing.
func (t *NoOpTracer) EmitPlan(_ context.Context, _ []string) {}

// NoOpSpan is a no-op implementation of ports.Span.
type NoOpSpan struct{}

// End does nothing.
func (s *NoOpSpan) End() {}

// RecordError does nothing.
func (s *NoOpSpan) RecordError(_ error) {}

// SetAttribute does nothing.
func (s *NoOpSpan) SetAttribute(_ string, _ any) {}

// SetStatus does nothing.
func (s *NoOpSpan) SetStatus(_ ports.TaskStatus) {}

// Write does nothing and reports the full length of p written.
func (s *NoOpSpan) Write(p []byte) (int, error) {
	return len(p), nil
}
