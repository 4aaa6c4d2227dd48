package main

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"B3Sentinel/internal/bcb"
	"B3Sentinel/internal/cache"
	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/config"
	"B3Sentinel/internal/dashboard"
	"B3Sentinel/internal/logger"
	"B3Sentinel/internal/model"
	"B3Sentinel/internal/scheduler"
)

// app holds the wired pipeline shared by every command.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	clock   *scheduler.Clock
	memo    *cache.Memo
	service *dashboard.Service
}

func newApp(configPath string) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		_ = godotenv.Load()
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)

	fetcher, err := collector.NewFetcher(cfg.Market.Provider, cfg.Proxy, cfg.HTTPTimeout, log)
	if err != nil {
		return nil, err
	}
	log.Info().Str("provider", fetcher.Name()).Msg("quote provider selected")

	rates := bcb.NewClient(cfg.Rates.OlindaBaseURL, cfg.Rates.SGSBaseURL, cfg.Proxy, cfg.HTTPTimeout, log)
	clock := scheduler.NewClock(cfg.Location(), nil)

	horizon, _ := model.ParseHorizon(cfg.Rates.Horizon)
	opts := dashboard.Options{
		CompositionPath:  cfg.Market.CompositionPath,
		SymbolSuffix:     cfg.Market.SymbolSuffix,
		MarketStart:      cfg.MarketStart(),
		RatesStart:       cfg.RatesStart(),
		DefaultSelection: cfg.Market.DefaultSelection,
		Horizon:          horizon,
		SeriesCodes:      cfg.SeriesCodes(),
	}
	memo := cache.New(log)
	svc := dashboard.NewService(collector.NewCollector(fetcher, log), rates, memo, clock, opts, log)

	return &app{cfg: cfg, log: log, clock: clock, memo: memo, service: svc}, nil
}

// resetCache drops memoized results after the reference date moves.
func (a *app) resetCache(today time.Time) {
	stats := a.memo.Stats()
	a.memo.Reset()
	a.log.Info().
		Str("today", today.Format(time.DateOnly)).
		Int("entries", stats.Entries).
		Uint64("hits", stats.Hits).
		Uint64("misses", stats.Misses).
		Msg("memo cleared")
}
