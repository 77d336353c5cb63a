package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LIQD_* environment variable overrides, and
// returns the final Config. The caller should invoke Config.Validate()
// afterwards.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env if present; silently ignore when missing.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides overwrites Config fields from well-known LIQD_*
// variables so operators can inject endpoints and credentials at deploy time
// without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Ledger.RPCURL, "LIQD_LEDGER_RPC_URL")
	setStr(&cfg.Ledger.Commitment, "LIQD_LEDGER_COMMITMENT")
	setDuration(&cfg.Ledger.RequestTimeout, "LIQD_LEDGER_REQUEST_TIMEOUT")

	setStr(&cfg.Venue.ProgramID, "LIQD_VENUE_PROGRAM_ID")

	setStr(&cfg.Liquidator.KeyfilePath, "LIQD_LIQUIDATOR_KEYFILE_PATH")
	setInt(&cfg.Liquidator.Workers, "LIQD_LIQUIDATOR_WORKERS")

	setBool(&cfg.Metrics.Enabled, "LIQD_METRICS_ENABLED")
	setStr(&cfg.Metrics.Addr, "LIQD_METRICS_ADDR")

	setStr(&cfg.Notify.TelegramToken, "LIQD_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "LIQD_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LIQD_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "LIQD_NOTIFY_EVENTS")

	setStr(&cfg.LogLevel, "LIQD_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
