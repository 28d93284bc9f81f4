package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"

	"github.com/y-kuroda/mnemo/pkg/model"
	"github.com/y-kuroda/mnemo/pkg/repository"
	"github.com/y-kuroda/mnemo/pkg/usecase/memory"
	"github.com/y-kuroda/mnemo/pkg/utils/logging"
	"github.com/y-kuroda/mnemo/pkg/utils/metrics"
)

// config holds configuration values
type config struct {
	// Store
	backend   string
	dbPath    string
	project   string
	database  string
	redisAddr string
	cacheTTL  time.Duration

	// Identity filters
	userID  string
	agentID string
	runID   string

	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Aliases:     []string{"b"},
			Usage:       "Storage backend: memory, sqlite or firestore",
			Value:       "sqlite",
			Sources:     cli.EnvVars("MNEMO_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "SQLite database file path",
			Value:       "mnemo.db",
			Sources:     cli.EnvVars("MNEMO_DB_PATH"),
			Destination: &cfg.dbPath,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis URL for the read cache (e.g. redis://localhost:6379/0); empty disables caching",
			Sources:     cli.EnvVars("MNEMO_REDIS_ADDR"),
			Destination: &cfg.redisAddr,
		},
		&cli.DurationFlag{
			Name:        "cache-ttl",
			Usage:       "TTL for cached records",
			Value:       5 * time.Minute,
			Sources:     cli.EnvVars("MNEMO_CACHE_TTL"),
			Destination: &cfg.cacheTTL,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level: debug, info, warn or error",
			Value:       "info",
			Sources:     cli.EnvVars("MNEMO_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// identityFlags returns the filters shared by every memory command.
func identityFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID filter",
			Sources:     cli.EnvVars("MNEMO_USER_ID"),
			Destination: &cfg.userID,
		},
		&cli.StringFlag{
			Name:        "agent",
			Usage:       "Agent ID filter",
			Sources:     cli.EnvVars("MNEMO_AGENT_ID"),
			Destination: &cfg.agentID,
		},
		&cli.StringFlag{
			Name:        "run",
			Usage:       "Run ID filter",
			Sources:     cli.EnvVars("MNEMO_RUN_ID"),
			Destination: &cfg.runID,
		},
	}
}

func (cfg *config) identity() model.Identity {
	return model.Identity{
		UserID:  cfg.userID,
		AgentID: cfg.agentID,
		RunID:   cfg.runID,
	}
}

// newStore creates the configured store backend, optionally wrapped
// with the Redis read cache.
func (cfg *config) newStore(ctx context.Context) (repository.Store, error) {
	var store repository.Store
	var err error

	switch cfg.backend {
	case "memory":
		store = repository.NewMemory()
	case "sqlite":
		store, err = repository.NewSQLite(cfg.dbPath)
	case "firestore":
		if cfg.project == "" {
			return nil, goerr.New("project is required for the firestore backend")
		}
		store, err = repository.NewFirestore(ctx, cfg.project, cfg.database)
	default:
		return nil, goerr.New("unknown backend", goerr.V("backend", cfg.backend))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create store", goerr.V("backend", cfg.backend))
	}

	if cfg.redisAddr != "" {
		cached, err := repository.NewCache(cfg.redisAddr, store, cfg.cacheTTL)
		if err != nil {
			store.Close()
			return nil, goerr.Wrap(err, "failed to create cache")
		}
		store = cached
	}

	return store, nil
}

// newUseCase builds the memory service with the configured store,
// logger and metrics sink. The returned closer releases the store.
func (cfg *config) newUseCase(ctx context.Context) (*memory.UseCase, func() error, error) {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)

	store, err := cfg.newStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	var sink metrics.Sink = metrics.Discard{}
	// The global meter provider is a no-op unless the process configured
	// an exporter.
	if otelSink, err := metrics.NewOTel(otel.Meter("mnemo")); err == nil {
		sink = otelSink
	}

	uc := memory.New(store,
		memory.WithLogger(logger),
		memory.WithMetrics(sink),
	)
	return uc, store.Close, nil
}

// parseMetadata decodes a metadata JSON object from a flag value.
func parseMetadata(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, goerr.Wrap(err, "failed to parse metadata JSON")
	}
	return meta, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	return nil
}

// cutoffFromDays converts a trailing-days window to an absolute cutoff.
func cutoffFromDays(days int64) *time.Time {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	return &cutoff
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(time.RFC3339)
}
