package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope for engine spans.
const tracerName = "github.com/loomui/loom"

// Tracer returns the engine tracer from the global provider. Applications
// configure the provider in main(); without one this is a no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
