// Package dashboard builds the stock and rate pages from the data pipeline.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"B3Sentinel/internal/bcb"
	"B3Sentinel/internal/cache"
	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/model"
	"B3Sentinel/internal/reference"
)

// ErrInvalidQuery marks page parameters that cannot be served.
var ErrInvalidQuery = errors.New("invalid query")

// Clock supplies the reference date used as the default end of every window.
type Clock interface {
	Today() time.Time
}

// RateSource is the macro rate API.
type RateSource interface {
	Expectations(ctx context.Context, indicator model.Indicator, horizon model.Horizon) ([]model.ExpectationRecord, error)
	History(ctx context.Context, code int, start, end time.Time) ([]model.RateObservation, error)
}

// Options parameterize the pipeline.
type Options struct {
	CompositionPath  string
	SymbolSuffix     string
	MarketStart      time.Time
	RatesStart       time.Time
	DefaultSelection int
	Horizon          model.Horizon
	SeriesCodes      map[model.Indicator]int
}

// DefaultOptions returns the options of the bundled composition file.
func DefaultOptions() Options {
	return Options{
		CompositionPath:  "data/IBOVDia_05-02-25.csv",
		SymbolSuffix:     reference.DefaultSuffix,
		MarketStart:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		RatesStart:       time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		DefaultSelection: 5,
		Horizon:          model.LongTerm,
		SeriesCodes: map[model.Indicator]int{
			model.Selic: bcb.SelicCode,
			model.IPCA:  bcb.IPCACode,
			model.CDI:   bcb.CDICode,
		},
	}
}

// Service serves the dashboard pages. Every remote fetch goes through the
// memo table, so repeated page builds with the same inputs do not refetch.
type Service struct {
	collector *collector.Collector
	rates     RateSource
	memo      *cache.Memo
	clock     Clock
	opts      Options
	log       zerolog.Logger
}

// NewService wires the pipeline.
func NewService(col *collector.Collector, rates RateSource, memo *cache.Memo, clock Clock, opts Options, log zerolog.Logger) *Service {
	return &Service{
		collector: col,
		rates:     rates,
		memo:      memo,
		clock:     clock,
		opts:      opts,
		log:       log.With().Str("component", "dashboard").Logger(),
	}
}

// Today returns the reference date.
func (s *Service) Today() time.Time { return s.clock.Today() }

// Composition loads the index composition sorted by weight.
func (s *Service) Composition() ([]model.Ticker, error) {
	return cache.Do(s.memo, "composition", []any{s.opts.CompositionPath, s.opts.SymbolSuffix}, func() ([]model.Ticker, error) {
		return reference.LoadComposition(s.opts.CompositionPath, s.opts.SymbolSuffix)
	})
}

// Prices returns the closes of symbols from the market start date up to,
// not including, today. The cache key is order-sensitive.
func (s *Service) Prices(ctx context.Context, symbols []string) (*model.PriceTable, error) {
	start, end := s.opts.MarketStart, s.clock.Today()
	return cache.Do(s.memo, "prices", []any{symbols, start, end}, func() (*model.PriceTable, error) {
		return s.collector.FetchClosePrices(ctx, symbols, start, end)
	})
}

// History returns an indicator's observations from the rates start date
// through today.
func (s *Service) History(ctx context.Context, indicator model.Indicator) (model.RateSeries, error) {
	code, ok := s.opts.SeriesCodes[indicator]
	if !ok {
		return model.RateSeries{}, fmt.Errorf("no series code for %s: %w", indicator, ErrInvalidQuery)
	}
	start, end := s.opts.RatesStart, s.clock.Today()
	obs, err := cache.Do(s.memo, "history", []any{code, start, end}, func() ([]model.RateObservation, error) {
		return s.rates.History(ctx, code, start, end)
	})
	if err != nil {
		return model.RateSeries{}, fmt.Errorf("%s history: %w", indicator, err)
	}
	return model.RateSeries{Indicator: indicator, Observations: obs}, nil
}

// Expectations returns the market expectations of an indicator. CDI is
// derived from Selic.
func (s *Service) Expectations(ctx context.Context, indicator model.Indicator) ([]model.ExpectationRecord, error) {
	source := indicator
	if indicator == model.CDI {
		source = model.Selic
	}
	records, err := cache.Do(s.memo, "expectations", []any{string(source), string(s.opts.Horizon), s.clock.Today()}, func() ([]model.ExpectationRecord, error) {
		return s.rates.Expectations(ctx, source, s.opts.Horizon)
	})
	if err != nil {
		return nil, fmt.Errorf("%s expectations: %w", indicator, err)
	}
	if indicator == model.CDI {
		return bcb.DeriveCDI(records), nil
	}
	return records, nil
}
