package exporters

import (
	"context"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ConsoleExporter is a no-op span exporter used when no collector endpoint is
// configured. Spans still propagate trace IDs into logs and responses.
type ConsoleExporter struct{}

func (c *ConsoleExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return nil
}

func (c *ConsoleExporter) Shutdown(ctx context.Context) error {
	return nil
}
