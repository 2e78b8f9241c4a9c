// Package tracing wraps go.opentelemetry.io/otel's global tracer for the
// engine's two span scopes: one per Execute run, and one per inbound
// message read during that run. Message spans are started from
// context.Background(), so they are not linked as children of the run
// span (SPEC_FULL §4.10).
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is a thin wrapper over an otel trace.Tracer. With no configured
// exporter, otel's default no-op TracerProvider is used, so this never
// requires an external collector to function.
type Tracer struct {
	tracer trace.Tracer
}

// New returns a Tracer bound to otel's global TracerProvider.
func New() *Tracer {
	return &Tracer{tracer: otel.Tracer("quickstrom-go/session")}
}

// NoOp returns a Tracer that records nothing, for callers that don't want
// to depend on otel's global provider state (e.g. tests).
func NoOp() *Tracer {
	return &Tracer{tracer: trace.NewNoopTracerProvider().Tracer("noop")}
}

// StartRun opens one span covering a whole Execute run, from the first
// inbound message to Done or a fatal error, and returns its end function.
func (t *Tracer) StartRun() (end func()) {
	_, span := t.tracer.Start(context.Background(), "session.run")
	return func() { span.End() }
}

// StartMessage opens one span for handling a single inbound
// message, tagged with its wire tag and the state version at dispatch
// time (-1 when no session is open yet).
func (t *Tracer) StartMessage(tag string, version int) (end func()) {
	_, span := t.tracer.Start(context.Background(), "session.message",
		trace.WithAttributes(
			attribute.String("quickstrom.message_tag", tag),
			attribute.Int("quickstrom.state_version", version),
		))
	return func() { span.End() }
}
