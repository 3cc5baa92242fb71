package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings controls how the server process runs
type Settings struct {
	Host          string        `env:"CITYGRID_HOST"           envDefault:"localhost"`
	Port          int           `env:"CITYGRID_PORT"           envDefault:"8080"`
	BoardDir      string        `env:"CITYGRID_BOARD_DIR"      envDefault:"boards"`
	DefaultBoard  string        `env:"CITYGRID_DEFAULT_BOARD"  envDefault:"default"`
	StartingMoves int           `env:"CITYGRID_STARTING_MOVES" envDefault:"6"`
	PlayerTimeout time.Duration `env:"CITYGRID_PLAYER_TIMEOUT" envDefault:"90s"`
	SweepInterval time.Duration `env:"CITYGRID_SWEEP_INTERVAL" envDefault:"15s"`
	Debug         bool          `env:"CITYGRID_DEBUG"`

	Ngrok NgrokSettings
}

// NgrokSettings controls the optional public tunnel
type NgrokSettings struct {
	Enabled   bool   `env:"NGROK_ENABLED"`
	AuthToken string `env:"NGROK_AUTHTOKEN"`
	Domain    string `env:"NGROK_DOMAIN"`
}

// Addr returns host:port
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate rejects settings the server cannot run with
func (s Settings) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("port %d out of range", s.Port)
	}
	if s.StartingMoves <= 0 {
		return fmt.Errorf("starting moves must be positive, got %d", s.StartingMoves)
	}
	if s.PlayerTimeout <= 0 {
		return fmt.Errorf("player timeout must be positive, got %s", s.PlayerTimeout)
	}
	if s.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", s.SweepInterval)
	}
	return nil
}

// Load reads the given .env files (".env" when none are named) and parses
// the settings from the environment. Missing .env files are not an error.
func Load(envFiles ...string) (Settings, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var settings Settings
	if err := env.Parse(&settings); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if settings.Ngrok.AuthToken == "" {
		// NGROK_AUTH_TOKEN is accepted as an alias
		settings.Ngrok.AuthToken = envOr("NGROK_AUTH_TOKEN", "")
	}
	return settings, settings.Validate()
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
