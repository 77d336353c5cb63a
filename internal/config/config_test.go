package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Ledger.RPCURL = "https://rpc.example.com"
	cfg.Venue.ProgramID = "dammHkt7jmytvbS3nHTxQNEcP59aE57nxwV21YdqEDN"
	cfg.Liquidator.KeyfilePath = "/keys/liquidator.json"
	return cfg
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing rpc url", func(c *Config) { c.Ledger.RPCURL = "" }, "rpc_url"},
		{"bad commitment", func(c *Config) { c.Ledger.Commitment = "eventually" }, "commitment"},
		{"zero timeout", func(c *Config) { c.Ledger.RequestTimeout = duration{} }, "request_timeout"},
		{"missing program id", func(c *Config) { c.Venue.ProgramID = "" }, "program_id"},
		{"missing keyfile", func(c *Config) { c.Liquidator.KeyfilePath = "" }, "keyfile_path"},
		{"zero workers", func(c *Config) { c.Liquidator.Workers = 0 }, "workers"},
		{"metrics enabled without addr", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Addr = ""
		}, "metrics.addr"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liquidator.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[ledger]
rpc_url = "https://rpc.example.com"
request_timeout = "10s"

[venue]
program_id = "dammHkt7jmytvbS3nHTxQNEcP59aE57nxwV21YdqEDN"

[liquidator]
keyfile_path = "/keys/liquidator.json"

[notify]
events = ["liquidation"]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://rpc.example.com", cfg.Ledger.RPCURL)
	assert.Equal(t, 10*time.Second, cfg.Ledger.RequestTimeout.Duration)
	// Untouched fields keep their defaults.
	assert.Equal(t, "processed", cfg.Ledger.Commitment)
	assert.Equal(t, 16, cfg.Liquidator.Workers)
	assert.Equal(t, ":9644", cfg.Metrics.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"liquidation"}, cfg.Notify.Events)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liquidator.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[ledger]
rpc_url = "https://file.example.com"

[venue]
program_id = "dammHkt7jmytvbS3nHTxQNEcP59aE57nxwV21YdqEDN"

[liquidator]
keyfile_path = "/keys/liquidator.json"
`), 0o600))

	t.Setenv("LIQD_LEDGER_RPC_URL", "https://env.example.com")
	t.Setenv("LIQD_LIQUIDATOR_WORKERS", "4")
	t.Setenv("LIQD_NOTIFY_EVENTS", "bootstrap, liquidation")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Ledger.RPCURL)
	assert.Equal(t, 4, cfg.Liquidator.Workers)
	assert.Equal(t, []string{"bootstrap", "liquidation"}, cfg.Notify.Events)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
