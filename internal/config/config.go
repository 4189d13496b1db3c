package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTPAddr is the bind address for the control API.
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	// MetricsAddr is the bind address for the Prometheus endpoint.
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	// StreamEndpoint is the websocket URL of the scraper fan-out service.
	StreamEndpoint string `envconfig:"STREAM_ENDPOINT" required:"true"`
	// StreamHandshakeTimeoutSec bounds the websocket dial.
	StreamHandshakeTimeoutSec int `envconfig:"STREAM_HANDSHAKE_TIMEOUT_SEC" default:"15"`

	// PostgresDSN enables the durable session archive. Empty means the
	// in-memory archive is used.
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	// ClickhouseDSN enables durable source latency analytics. Empty means
	// the in-memory store is used.
	ClickhouseDSN string `envconfig:"CLICKHOUSE_DSN" default:""`

	// TitleOverlap is the keyword overlap ratio required to consider two
	// titles the same event when at least one has a start date.
	TitleOverlap float64 `envconfig:"TITLE_OVERLAP" default:"0.75"`
	// TitleOverlapNoDate is the stricter ratio applied when either
	// candidate lacks a start date.
	TitleOverlapNoDate float64 `envconfig:"TITLE_OVERLAP_NO_DATE" default:"0.90"`

	// ArchiveTimeoutSec bounds the storage writes performed when a
	// session reaches a terminal state.
	ArchiveTimeoutSec int `envconfig:"ARCHIVE_TIMEOUT_SEC" default:"10"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks value ranges and cross-field constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.StreamEndpoint) == "" {
		return fmt.Errorf("STREAM_ENDPOINT is required")
	}
	if !strings.HasPrefix(c.StreamEndpoint, "ws://") && !strings.HasPrefix(c.StreamEndpoint, "wss://") {
		return fmt.Errorf("STREAM_ENDPOINT must be a ws:// or wss:// URL")
	}
	if c.StreamHandshakeTimeoutSec < 1 {
		return fmt.Errorf("STREAM_HANDSHAKE_TIMEOUT_SEC must be >= 1")
	}
	if c.TitleOverlap <= 0 || c.TitleOverlap > 1 {
		return fmt.Errorf("TITLE_OVERLAP must be in (0, 1]")
	}
	if c.TitleOverlapNoDate <= 0 || c.TitleOverlapNoDate > 1 {
		return fmt.Errorf("TITLE_OVERLAP_NO_DATE must be in (0, 1]")
	}
	if c.TitleOverlapNoDate < c.TitleOverlap {
		return fmt.Errorf("TITLE_OVERLAP_NO_DATE (%v) cannot be below TITLE_OVERLAP (%v)", c.TitleOverlapNoDate, c.TitleOverlap)
	}
	if c.ArchiveTimeoutSec < 1 {
		return fmt.Errorf("ARCHIVE_TIMEOUT_SEC must be >= 1")
	}
	return nil
}
