package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"B3Sentinel/internal/bcb"
	"B3Sentinel/internal/model"
)

var overrides = []string{
	"PORT", "DEV_MODE", "LOG_LEVEL", "LOG_PRETTY", "QUOTE_PROVIDER", "COMPOSITION_PATH",
	"HTTPS_PROXY", "BCB_OLINDA_URL", "BCB_SGS_URL", "CONFIG_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range overrides {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "yahoo", cfg.Market.Provider)
	assert.Equal(t, "data/IBOVDia_05-02-25.csv", cfg.Market.CompositionPath)
	assert.Equal(t, ".SA", cfg.Market.SymbolSuffix)
	assert.Equal(t, 5, cfg.Market.DefaultSelection)
	assert.Equal(t, bcb.DefaultOlindaURL, cfg.Rates.OlindaBaseURL)
	assert.Equal(t, bcb.DefaultSGSURL, cfg.Rates.SGSBaseURL)
	assert.Equal(t, "L", cfg.Rates.Horizon)
	assert.Equal(t, "0 0 0 * * *", cfg.Schedule.RollCron)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), cfg.MarketStart())
	assert.Equal(t, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), cfg.RatesStart())
	assert.Equal(t, map[model.Indicator]int{model.Selic: 432, model.IPCA: 13522, model.CDI: 4389}, cfg.SeriesCodes())
	assert.Equal(t, "America/Sao_Paulo", cfg.Location().String())
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 9000
market:
  provider: financego
  default_selection: 3
rates:
  horizon: C
http_timeout: 5s
proxy: http://file-proxy:3128
`)
	t.Setenv("PORT", "9100")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("HTTPS_PROXY", "http://env-proxy:3128")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "financego", cfg.Market.Provider)
	assert.Equal(t, 3, cfg.Market.DefaultSelection)
	assert.Equal(t, "C", cfg.Rates.Horizon)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "http://env-proxy:3128", cfg.Proxy)
}

func TestLoadFromEnv_ConfigPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeConfig(t, "market:\n  provider: yfinance\n"))

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "yfinance", cfg.Market.Provider)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "server: [1, 2"))
	assert.Error(t, err)

	t.Setenv("PORT", "eighty")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"provider", func(c *Config) { c.Market.Provider = "bloomberg" }},
		{"selection", func(c *Config) { c.Market.DefaultSelection = -1 }},
		{"market start", func(c *Config) { c.Market.StartDate = "01/01/2020" }},
		{"rates start", func(c *Config) { c.Rates.StartDate = "yesterday" }},
		{"horizon", func(c *Config) { c.Rates.Horizon = "X" }},
		{"timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
