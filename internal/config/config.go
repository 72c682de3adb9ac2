package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	API   APIConfig
	View  ViewConfig
	Log   LogConfig
	Serve ServeConfig
}

// APIConfig points the client at the remote item service.
type APIConfig struct {
	BaseURL string        `envconfig:"INV_API_BASE_URL" default:"http://127.0.0.1:8000"`
	Timeout time.Duration `envconfig:"INV_HTTP_TIMEOUT" default:"10s"`
}

// ViewConfig tunes the interactive table.
type ViewConfig struct {
	PageSize int `envconfig:"INV_PAGE_SIZE" default:"4"`
}

// LogConfig controls where diagnostics go. Empty means no log output; the
// terminal itself belongs to the TUI.
type LogConfig struct {
	File string `envconfig:"INV_LOG_FILE" default:""`
}

// ServeConfig configures the local development item service.
type ServeConfig struct {
	Addr string `envconfig:"INV_SERVE_ADDR" default:":8000"`
	Data string `envconfig:"INV_SERVE_DATA" default:"items.json"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
