// Package collector retrieves closing-price tables from quote providers.
package collector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"B3Sentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Closes map[string][]model.PricePoint
	Err    error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCloses(_ context.Context, symbols []string, start, end time.Time) (map[string][]model.PricePoint, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string][]model.PricePoint)
	for _, s := range symbols {
		var points []model.PricePoint
		for _, p := range m.Closes[s] {
			if inWindow(p.Date, start, end) {
				points = append(points, p)
			}
		}
		if len(points) > 0 {
			out[s] = points
		}
	}
	return out, nil
}

// Calls returns how many times FetchCloses ran.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Collector turns provider responses into price tables.
type Collector struct {
	Fetcher Fetcher
	log     zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, log zerolog.Logger) *Collector {
	return &Collector{
		Fetcher: fetcher,
		log:     log.With().Str("component", "collector").Str("provider", fetcher.Name()).Logger(),
	}
}

// FetchClosePrices returns the closes of symbols inside [start, end), one
// column per symbol the provider knows, in request order.
func (c *Collector) FetchClosePrices(ctx context.Context, symbols []string, start, end time.Time) (*model.PriceTable, error) {
	if len(symbols) == 0 {
		return model.NewPriceTable(), nil
	}

	c.log.Info().
		Int("symbols", len(symbols)).
		Str("start", start.Format(time.DateOnly)).
		Str("end", end.Format(time.DateOnly)).
		Msg("fetching closes")

	closes, err := c.Fetcher.FetchCloses(ctx, symbols, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch closes: %w", err)
	}

	table := BuildPriceTable(symbols, closes)
	if omitted := len(symbols) - len(table.Columns); omitted > 0 {
		for _, s := range symbols {
			if !table.Has(s) {
				c.log.Debug().Str("symbol", s).Msg("no data, column omitted")
			}
		}
	}
	if table.Empty() {
		return nil, fmt.Errorf("fetch closes for %d symbols: %w", len(symbols), model.ErrEmptyResult)
	}
	return table, nil
}

// BuildPriceTable outer-joins per-symbol closes on date. Columns follow the
// order of symbols; symbols without points are left out. A date repeated in
// one series keeps its last close.
func BuildPriceTable(symbols []string, closes map[string][]model.PricePoint) *model.PriceTable {
	table := model.NewPriceTable()

	byDate := make(map[time.Time]map[string]float64)
	for _, s := range symbols {
		points := closes[s]
		if len(points) == 0 || table.Has(s) {
			continue
		}
		table.Columns = append(table.Columns, s)
		table.Values[s] = nil
		for _, p := range points {
			d := model.Day(p.Date)
			row, ok := byDate[d]
			if !ok {
				row = make(map[string]float64)
				byDate[d] = row
			}
			row[s] = p.Close
		}
	}

	for d := range byDate {
		table.Dates = append(table.Dates, d)
	}
	sort.Slice(table.Dates, func(i, j int) bool { return table.Dates[i].Before(table.Dates[j]) })

	for _, s := range table.Columns {
		col := make([]float64, len(table.Dates))
		for i, d := range table.Dates {
			if v, ok := byDate[d][s]; ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		table.Values[s] = col
	}
	return table
}

// NewFetcher builds the provider named in configuration.
func NewFetcher(provider, proxyURL string, timeout time.Duration, log zerolog.Logger) (Fetcher, error) {
	switch provider {
	case "", "yahoo":
		return NewYahooFetcher(DefaultYahooURL, proxyURL, timeout, log), nil
	case "yfinance":
		return NewYFinanceFetcher(log), nil
	case "financego":
		return NewFinanceGoFetcher(log), nil
	default:
		return nil, fmt.Errorf("unknown quote provider %q", provider)
	}
}
