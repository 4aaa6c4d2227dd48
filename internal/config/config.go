package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"B3Sentinel/internal/bcb"
	"B3Sentinel/internal/model"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// DateLayout is the layout of the date keys.
const DateLayout = "2006-01-02"

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port    int  `yaml:"port"`
		DevMode bool `yaml:"dev_mode"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Market struct {
		Provider         string `yaml:"provider"`
		CompositionPath  string `yaml:"composition_path"`
		SymbolSuffix     string `yaml:"symbol_suffix"`
		StartDate        string `yaml:"start_date"`
		DefaultSelection int    `yaml:"default_selection"`
	} `yaml:"market"`
	Rates struct {
		OlindaBaseURL string `yaml:"olinda_base_url"`
		SGSBaseURL    string `yaml:"sgs_base_url"`
		StartDate     string `yaml:"start_date"`
		Horizon       string `yaml:"horizon"`
		SelicCode     int    `yaml:"selic_code"`
		IPCACode      int    `yaml:"ipca_code"`
		CDICode       int    `yaml:"cdi_code"`
	} `yaml:"rates"`
	Schedule struct {
		RollCron string `yaml:"roll_cron"`
		Timezone string `yaml:"timezone"`
	} `yaml:"schedule"`
	Proxy       string        `yaml:"proxy"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// LoadFromEnv loads .env (if present) and then the file named by CONFIG_PATH.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return Load(path)
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("DEV_MODE"); v != "" {
		cfg.Server.DevMode = truthy(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		cfg.Log.Pretty = truthy(v)
	}
	if v := os.Getenv("QUOTE_PROVIDER"); v != "" {
		cfg.Market.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("COMPOSITION_PATH"); v != "" {
		cfg.Market.CompositionPath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("BCB_OLINDA_URL"); v != "" {
		cfg.Rates.OlindaBaseURL = v
	}
	if v := os.Getenv("BCB_SGS_URL"); v != "" {
		cfg.Rates.SGSBaseURL = v
	}

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Market.Provider == "" {
		cfg.Market.Provider = "yahoo"
	}
	if cfg.Market.CompositionPath == "" {
		cfg.Market.CompositionPath = "data/IBOVDia_05-02-25.csv"
	}
	if cfg.Market.SymbolSuffix == "" {
		cfg.Market.SymbolSuffix = ".SA"
	}
	if cfg.Market.StartDate == "" {
		cfg.Market.StartDate = "2020-01-01"
	}
	if cfg.Market.DefaultSelection == 0 {
		cfg.Market.DefaultSelection = 5
	}
	if cfg.Rates.OlindaBaseURL == "" {
		cfg.Rates.OlindaBaseURL = bcb.DefaultOlindaURL
	}
	if cfg.Rates.SGSBaseURL == "" {
		cfg.Rates.SGSBaseURL = bcb.DefaultSGSURL
	}
	if cfg.Rates.StartDate == "" {
		cfg.Rates.StartDate = "2010-01-01"
	}
	if cfg.Rates.Horizon == "" {
		cfg.Rates.Horizon = string(model.LongTerm)
	}
	if cfg.Rates.SelicCode == 0 {
		cfg.Rates.SelicCode = bcb.SelicCode
	}
	if cfg.Rates.IPCACode == 0 {
		cfg.Rates.IPCACode = bcb.IPCACode
	}
	if cfg.Rates.CDICode == 0 {
		cfg.Rates.CDICode = bcb.CDICode
	}
	if cfg.Schedule.RollCron == "" {
		cfg.Schedule.RollCron = "0 0 0 * * *"
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "America/Sao_Paulo"
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Market.Provider {
	case "yahoo", "yfinance", "financego":
	default:
		return fmt.Errorf("market.provider %q is not supported", c.Market.Provider)
	}
	if c.Market.DefaultSelection < 0 {
		return fmt.Errorf("market.default_selection must not be negative")
	}
	if _, err := time.Parse(DateLayout, c.Market.StartDate); err != nil {
		return fmt.Errorf("market.start_date: %w", err)
	}
	if _, err := time.Parse(DateLayout, c.Rates.StartDate); err != nil {
		return fmt.Errorf("rates.start_date: %w", err)
	}
	if _, err := model.ParseHorizon(c.Rates.Horizon); err != nil {
		return fmt.Errorf("rates.horizon: %w", err)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must not be negative")
	}
	return nil
}

// MarketStart returns market.start_date as a UTC day.
func (c *Config) MarketStart() time.Time {
	t, _ := time.Parse(DateLayout, c.Market.StartDate)
	return t
}

// RatesStart returns rates.start_date as a UTC day.
func (c *Config) RatesStart() time.Time {
	t, _ := time.Parse(DateLayout, c.Rates.StartDate)
	return t
}

// Location returns the schedule timezone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SeriesCodes maps each indicator to its SGS series code.
func (c *Config) SeriesCodes() map[model.Indicator]int {
	return map[model.Indicator]int{
		model.Selic: c.Rates.SelicCode,
		model.IPCA:  c.Rates.IPCACode,
		model.CDI:   c.Rates.CDICode,
	}
}

func truthy(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
