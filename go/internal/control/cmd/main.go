package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gameboard/go/internal/auth"
	"github.com/mcdev12/gameboard/go/internal/boardconfig"
	"github.com/mcdev12/gameboard/go/internal/bridge"
	"github.com/mcdev12/gameboard/go/internal/control"
	"github.com/mcdev12/gameboard/go/internal/httpserver"
	"github.com/mcdev12/gameboard/go/internal/persistence"
	"github.com/mcdev12/gameboard/go/internal/teamstate"
)

func main() {
	cfg, err := boardconfig.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	boardconfig.SetupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closer, err := boardconfig.OpenBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open backend")
	}
	defer closer.Close()

	adapter := persistence.NewAdapter(kv, cfg.Namespace)

	seed, err := boardconfig.LoadSeed(cfg.SeedFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SeedFile).Msg("failed to load seed file")
	}

	initial, err := teamstate.Bootstrap(ctx, adapter, adapter, seed)
	if err != nil {
		// the seed is still usable locally; the next mutation retries the save
		log.Error().Err(err).Msg("failed to persist seed set")
	}

	store := teamstate.NewStore(initial)
	app := teamstate.NewApp(store, adapter, seed)

	// the control context also follows the persisted copy so that a second
	// control surface (or a manual edit) shows up here
	follower := bridge.New(adapter, store, bridge.Config{PollInterval: cfg.PollInterval},
		bridge.WithLocker(app.SyncLock()))
	if err := follower.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start bridge")
	}

	authenticator, err := newAuthenticator(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure authentication")
	}
	sessions := auth.NewSessions(cfg.SessionTTL, nil)

	mux := http.NewServeMux()
	control.NewHandler(app, authenticator, sessions).RegisterRoutes(mux)
	mux.Handle("GET /health", bridge.NewHealthChecker(follower, healthThreshold(cfg.PollInterval)))
	mux.HandleFunc("GET /healthz", httpserver.HealthOK)

	log.Info().
		Str("backend", cfg.Backend).
		Str("namespace", cfg.Namespace).
		Str("port", cfg.ControlPort).
		Msg("starting control surface")

	if err := httpserver.Run(ctx, httpserver.New(cfg.ControlPort, mux)); err != nil {
		log.Error().Err(err).Msg("control server failed")
	}

	if err := follower.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop bridge")
	}
	log.Info().Msg("control surface shutdown complete")
}

func newAuthenticator(cfg boardconfig.Config) (auth.Authenticator, error) {
	if cfg.ControlSecretHash != "" {
		hashed, err := auth.NewHashedSecret(cfg.ControlSecretHash)
		if err != nil {
			return nil, err
		}
		return hashed, nil
	}
	if cfg.ControlSecret == "" {
		log.Warn().Msg("CONTROL_SECRET is not set, every login will be refused")
	}
	return auth.NewStaticSecret(cfg.ControlSecret), nil
}

// healthThreshold allows a few missed polls before reporting unhealthy
func healthThreshold(poll time.Duration) time.Duration {
	return max(5*poll, 10*time.Second)
}
