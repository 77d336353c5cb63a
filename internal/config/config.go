// Package config defines the liquidator's configuration and its validation.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration. Fields are populated from a TOML file
// and then optionally overridden by LIQD_* environment variables.
type Config struct {
	Ledger     LedgerConfig     `toml:"ledger"`
	Venue      VenueConfig      `toml:"venue"`
	Liquidator LiquidatorConfig `toml:"liquidator"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Notify     NotifyConfig     `toml:"notify"`
	LogLevel   string           `toml:"log_level"`
}

// LedgerConfig holds the RPC endpoint parameters.
type LedgerConfig struct {
	RPCURL         string   `toml:"rpc_url"`
	Commitment     string   `toml:"commitment"`
	RequestTimeout duration `toml:"request_timeout"`
}

// VenueConfig identifies the clearing program under watch.
type VenueConfig struct {
	ProgramID string `toml:"program_id"`
}

// LiquidatorConfig holds the submitter identity and fan-out width.
type LiquidatorConfig struct {
	KeyfilePath string `toml:"keyfile_path"`
	Workers     int    `toml:"workers"`
}

// MetricsConfig controls the prometheus listener.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// NotifyConfig holds webhook notification channels and the event filter.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns the built-in configuration. The request timeout and
// commitment level match what the venue's RPC nodes tolerate for bulk scans.
func Defaults() Config {
	return Config{
		Ledger: LedgerConfig{
			Commitment:     "processed",
			RequestTimeout: duration{45 * time.Second},
		},
		Liquidator: LiquidatorConfig{
			Workers: 16,
		},
		Metrics: MetricsConfig{
			Addr: ":9644",
		},
		LogLevel: "info",
	}
}

// Validate checks that every required field is present and coherent.
func (c *Config) Validate() error {
	if c.Ledger.RPCURL == "" {
		return fmt.Errorf("config: ledger.rpc_url is required")
	}
	switch c.Ledger.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("config: ledger.commitment must be processed, confirmed, or finalized, got %q", c.Ledger.Commitment)
	}
	if c.Ledger.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("config: ledger.request_timeout must be positive")
	}
	if c.Venue.ProgramID == "" {
		return fmt.Errorf("config: venue.program_id is required")
	}
	if c.Liquidator.KeyfilePath == "" {
		return fmt.Errorf("config: liquidator.keyfile_path is required")
	}
	if c.Liquidator.Workers < 1 {
		return fmt.Errorf("config: liquidator.workers must be at least 1")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("config: metrics.addr is required when metrics are enabled")
	}
	return nil
}

// duration wraps time.Duration for TOML decoding of strings like "45s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}
