package boardconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Backend names accepted by BOARD_BACKEND
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNATS     = "nats"
	BackendMemory   = "memory"
)

// Postgres holds connection settings, read from the DB_* variables
type Postgres struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Database string `env:"DB_NAME" envDefault:"gameboard"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN returns the Postgres connection URL
func (p Postgres) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

// Config is shared by the control and display binaries
type Config struct {
	Namespace     string        `env:"BOARD_NAMESPACE" envDefault:"gameboard"`
	Backend       string        `env:"BOARD_BACKEND" envDefault:"sqlite"`
	SQLitePath    string        `env:"BOARD_SQLITE_PATH" envDefault:"data/gameboard.db"`
	NotifyChannel string        `env:"BOARD_NOTIFY_CHANNEL" envDefault:"gameboard_kv_changes"`
	NATSURL       string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSBucket    string        `env:"BOARD_NATS_BUCKET" envDefault:"gameboard"`
	PollInterval  time.Duration `env:"BOARD_POLL_INTERVAL" envDefault:"1s"`
	SeedFile      string        `env:"BOARD_SEED_FILE"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`

	ControlPort       string        `env:"CONTROL_PORT" envDefault:"8080"`
	DisplayPort       string        `env:"DISPLAY_PORT" envDefault:"8081"`
	ControlSecret     string        `env:"CONTROL_SECRET"`
	ControlSecretHash string        `env:"CONTROL_SECRET_HASH"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"12h"`

	Postgres Postgres
}

// Load reads an optional .env file and then the environment
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if cfg.Namespace == "" {
		return Config{}, fmt.Errorf("BOARD_NAMESPACE must not be empty")
	}
	return cfg, nil
}

// SetupLogging configures the global zerolog logger for console output
func SetupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
