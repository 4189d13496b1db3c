package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Environment:               "local",
		LogLevel:                  "info",
		HTTPAddr:                  ":8080",
		MetricsAddr:               ":9090",
		StreamEndpoint:            "wss://stream.example.com/search",
		StreamHandshakeTimeoutSec: 15,
		TitleOverlap:              0.75,
		TitleOverlapNoDate:        0.90,
		ArchiveTimeoutSec:         10,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate failed on valid config: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing endpoint",
			mutate:  func(c *Config) { c.StreamEndpoint = "  " },
			wantSub: "STREAM_ENDPOINT is required",
		},
		{
			name:    "http endpoint",
			mutate:  func(c *Config) { c.StreamEndpoint = "https://stream.example.com" },
			wantSub: "ws:// or wss://",
		},
		{
			name:    "overlap out of range",
			mutate:  func(c *Config) { c.TitleOverlap = 1.5 },
			wantSub: "TITLE_OVERLAP",
		},
		{
			name:    "no-date overlap below dated overlap",
			mutate:  func(c *Config) { c.TitleOverlapNoDate = 0.5 },
			wantSub: "cannot be below",
		},
		{
			name:    "zero handshake timeout",
			mutate:  func(c *Config) { c.StreamHandshakeTimeoutSec = 0 },
			wantSub: "STREAM_HANDSHAKE_TIMEOUT_SEC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("Error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}
