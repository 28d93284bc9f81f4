package memory

import (
	"log/slog"
	"time"

	"github.com/y-kuroda/mnemo/pkg/repository"
	"github.com/y-kuroda/mnemo/pkg/utils/logging"
	"github.com/y-kuroda/mnemo/pkg/utils/metrics"
)

// scanLimit caps the full-table reads backing time-filtered statistics
// and quality analysis, keeping latency and memory deterministic.
const scanLimit = 10000

// UseCase orchestrates memory operations against a Store. It holds no
// state beyond its collaborators and is safe for concurrent callers;
// read-merge-write updates are last-write-wins (see Update).
type UseCase struct {
	store   repository.Store
	logger  *slog.Logger
	metrics metrics.Sink
	now     func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithLogger sets the logger used for operational warnings
func WithLogger(logger *slog.Logger) Option {
	return func(u *UseCase) {
		u.logger = logger
	}
}

// WithMetrics sets the sink receiving per-operation counters
func WithMetrics(sink metrics.Sink) Option {
	return func(u *UseCase) {
		u.metrics = sink
	}
}

// WithClock overrides the time source for age and trend computation
func WithClock(now func() time.Time) Option {
	return func(u *UseCase) {
		u.now = now
	}
}

// New creates a new memory UseCase instance
func New(store repository.Store, opts ...Option) *UseCase {
	u := &UseCase{
		store:   store,
		logger:  logging.Default(),
		metrics: metrics.Discard{},
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}
