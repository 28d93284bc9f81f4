package metrics

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTel is a Sink backed by an OpenTelemetry counter.
type OTel struct {
	operations metric.Int64Counter
}

// NewOTel builds a Sink on the given meter.
func NewOTel(meter metric.Meter) (*OTel, error) {
	counter, err := meter.Int64Counter(
		"mnemo.memory.operations",
		metric.WithDescription("Count of memory service operations by operation and status"),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create operations counter")
	}
	return &OTel{operations: counter}, nil
}

func (m *OTel) Record(ctx context.Context, operation, status string) {
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}
