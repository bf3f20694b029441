package boardconfig

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gameboard/go/internal/persistence"
	"github.com/mcdev12/gameboard/go/internal/persistence/memory"
	"github.com/mcdev12/gameboard/go/internal/persistence/natskv"
	"github.com/mcdev12/gameboard/go/internal/persistence/postgres"
	"github.com/mcdev12/gameboard/go/internal/persistence/sqlite"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenBackend opens the key-value location selected by cfg.Backend. The
// returned closer releases it.
func OpenBackend(ctx context.Context, cfg Config) (persistence.KV, io.Closer, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite backend")
		return store, store, nil

	case BackendPostgres:
		store, err := postgres.Open(ctx, postgres.Config{
			DSN:           cfg.Postgres.DSN(),
			NotifyChannel: cfg.NotifyChannel,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres backend: %w", err)
		}
		log.Info().
			Str("host", cfg.Postgres.Host).
			Int("port", cfg.Postgres.Port).
			Str("database", cfg.Postgres.Database).
			Msg("using postgres backend")
		return store, store, nil

	case BackendNATS:
		natsCfg := natskv.DefaultConfig()
		natsCfg.URL = cfg.NATSURL
		natsCfg.Bucket = cfg.NATSBucket
		store, err := natskv.Open(ctx, natsCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open nats backend: %w", err)
		}
		return store, store, nil

	case BackendMemory:
		// only useful for trying out a single binary; nothing leaves the process
		log.Warn().Msg("using in-memory backend, state is not shared across processes")
		return memory.NewSpace().Handle(), nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
