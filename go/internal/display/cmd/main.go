package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gameboard/go/internal/boardconfig"
	"github.com/mcdev12/gameboard/go/internal/bridge"
	"github.com/mcdev12/gameboard/go/internal/display"
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

	// The display never writes; until the control surface saves, it shows the seed
	initial, err := teamstate.Bootstrap(ctx, adapter, nil, seed)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap team state")
	}
	store := teamstate.NewStore(initial)

	follower := bridge.New(adapter, store, bridge.Config{PollInterval: cfg.PollInterval})
	if err := follower.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start bridge")
	}

	cm := display.NewConnectionManager(display.DefaultConnectionConfig())
	service := display.NewService(store, cm)
	go service.Run(ctx)

	mux := http.NewServeMux()
	display.NewHandler(service, cm).RegisterRoutes(mux)
	mux.Handle("GET /health", bridge.NewHealthChecker(follower, max(5*cfg.PollInterval, 10*time.Second)))
	mux.HandleFunc("GET /healthz", httpserver.HealthOK)

	log.Info().
		Str("backend", cfg.Backend).
		Str("namespace", cfg.Namespace).
		Str("port", cfg.DisplayPort).
		Msg("starting display surface")

	if err := httpserver.Run(ctx, httpserver.New(cfg.DisplayPort, mux)); err != nil {
		log.Error().Err(err).Msg("display server failed")
	}

	if err := follower.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop bridge")
	}
	log.Info().Msg("display surface shutdown complete")
}
