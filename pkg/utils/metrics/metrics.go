// Package metrics defines the operation counter sink injected into the
// memory service, so the service stays testable without process-wide
// metric state.
package metrics

import "context"

// Operation statuses reported to a Sink.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Sink receives one event per memory operation.
type Sink interface {
	Record(ctx context.Context, operation, status string)
}

// Discard is the default Sink; it drops all events.
type Discard struct{}

func (Discard) Record(ctx context.Context, operation, status string) {}
