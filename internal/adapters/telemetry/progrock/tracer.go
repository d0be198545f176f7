// Package progrock implements ports.Tracer on top of github.com/vito/progrock,
// rendering one vertex per task and marking a vertex Cached() when the engine reports
// the task was skipped as up to date.
package progrock

import (
	"context"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/bob/internal/core/ports"
)

// Tracer implements ports.Tracer, recording one progrock vertex per span.
type Tracer struct {
	rec *progrock.Recorder
}

// New creates a Tracer writing to a fresh in-memory tape.
func New() *Tracer {
	return NewWithWriter(progrock.NewTape())
}

// NewWithWriter creates a Tracer writing vertices to w.
func NewWithWriter(w progrock.Writer) *Tracer {
	return &Tracer{rec: progrock.NewRecorder(w)}
}

// Start opens a new vertex named name, digesting the parent task name (when present)
// into the vertex identity so repeated spans for the same task/parent pair reuse one
// vertex across a run.
func (t *Tracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	d := digest.FromString(cfg.ParentTaskName + "/" + name)
	vertex := t.rec.Vertex(d, name)
	return ctx, &Span{vertex: vertex}
}

// EmitPlan records the planned task set as a synthetic, immediately-completed vertex.
func (t *Tracer) EmitPlan(_ context.Context, taskNames []string) {
	d := digest.FromString("plan")
	v := t.rec.Vertex(d, "plan")
	for _, name := range taskNames {
		_, _ = v.Stdout().Write([]byte(name + "\n"))
	}
	v.Done(nil)
}

// Close flushes and closes the underlying recorder.
func (t *Tracer) Close() error {
	return t.rec.Close()
}

// Span implements ports.Span backed by a progrock vertex.
type Span struct {
	vertex *progrock.VertexRecorder
	err    error
}

// End marks the vertex done, successfully unless RecordError was called first.
func (s *Span) End() {
	s.vertex.Done(s.err)
}

// RecordError remembers err so the vertex is marked failed when End is called, and
// writes it to the vertex's stderr stream immediately for live output.
func (s *Span) RecordError(err error) {
	s.err = err
	_, _ = s.vertex.Stderr().Write([]byte(err.Error() + "\n"))
}

// SetAttribute is a no-op: progrock vertices have no concept of arbitrary key-value
// metadata, only a name and a stdout/stderr stream.
func (s *Span) SetAttribute(_ string, _ any) {}

// SetStatus marks the vertex cached when status reports a cache hit; other statuses have
// no distinct progrock rendering beyond Done's success/failure.
func (s *Span) SetStatus(status ports.TaskStatus) {
	if status == ports.TaskStatus("cached") {
		s.vertex.Cached()
	}
}

// Write sends p to the vertex's stdout stream, letting a span double as a destination
// for streamed task output.
func (s *Span) Write(p []byte) (int, error) {
	return s.vertex.Stdout().Write(p)
}
