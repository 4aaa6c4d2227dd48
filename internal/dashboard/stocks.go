package dashboard

import (
	"context"
	"fmt"
	"time"

	"B3Sentinel/internal/calculator"
	"B3Sentinel/internal/model"
	"B3Sentinel/internal/reference"
	"B3Sentinel/internal/report"
)

// StockQuery holds the stock page controls. Zero values select the defaults.
type StockQuery struct {
	From    time.Time
	To      time.Time
	Tickers []string
}

// StockPage is the rendered state of the stock page.
type StockPage struct {
	MinDate  time.Time             `json:"min_date"`
	MaxDate  time.Time             `json:"max_date"`
	From     time.Time             `json:"from"`
	To       time.Time             `json:"to"`
	Options  []model.Ticker        `json:"options"`
	Selected []string              `json:"selected"`
	Chart    *model.PriceTable     `json:"chart"`
	Series   map[string][]*float64 `json:"series"`
	Low      float64               `json:"low"`
	High     float64               `json:"high"`
	Returns  []model.Performance   `json:"returns"`
	CardRows [][]report.Card       `json:"card_rows"`
}

// Stocks loads every constituent's closes once and applies the page controls.
func (s *Service) Stocks(ctx context.Context, q StockQuery) (*StockPage, error) {
	tickers, err := s.Composition()
	if err != nil {
		return nil, err
	}
	table, err := s.Prices(ctx, reference.Symbols(tickers))
	if err != nil {
		return nil, err
	}

	page := &StockPage{}
	page.MinDate, page.MaxDate, _ = calculator.DateBounds(table)
	for _, t := range tickers {
		if table.Has(t.YahooSymbol) {
			page.Options = append(page.Options, t)
		}
	}

	page.From, page.To = q.From, q.To
	if page.From.IsZero() || page.From.Before(page.MinDate) {
		page.From = page.MinDate
	}
	if page.To.IsZero() || page.To.After(page.MaxDate) {
		page.To = page.MaxDate
	}
	if page.From.After(page.To) {
		return nil, fmt.Errorf("from %s after to %s: %w",
			page.From.Format(time.DateOnly), page.To.Format(time.DateOnly), ErrInvalidQuery)
	}

	page.Selected = s.selection(page.Options, q.Tickers)
	if len(page.Selected) == 0 {
		return nil, fmt.Errorf("no requested ticker has prices: %w", ErrInvalidQuery)
	}

	filtered := calculator.FilterRange(calculator.SelectColumns(table, page.Selected), page.From, page.To)
	page.Chart = calculator.ChartLabels(filtered)
	page.Series = make(map[string][]*float64, len(page.Chart.Columns))
	for _, c := range page.Chart.Columns {
		page.Series[c] = nullable(page.Chart.Values[c])
	}
	page.Low, page.High, _ = calculator.PriceBounds(filtered)

	metrics := page.Chart
	if len(page.Selected) == 1 {
		metrics = calculator.Relabel(page.Chart, calculator.CloseLabel, page.Selected[0])
	}
	page.Returns = calculator.Returns(metrics, reference.Names(tickers))
	page.CardRows = report.Rows(report.Cards(page.Returns), report.CardsPerRow)

	s.log.Debug().
		Int("selected", len(page.Selected)).
		Int("rows", filtered.Len()).
		Msg("stock page built")
	return page, nil
}

// selection keeps the requested tickers that have prices, or the heaviest
// DefaultSelection tickers when none are requested.
func (s *Service) selection(options []model.Ticker, requested []string) []string {
	available := make(map[string]bool, len(options))
	for _, t := range options {
		available[t.YahooSymbol] = true
	}

	var out []string
	if len(requested) == 0 {
		for _, t := range options {
			if len(out) == s.opts.DefaultSelection {
				break
			}
			out = append(out, t.YahooSymbol)
		}
		return out
	}

	seen := make(map[string]bool, len(requested))
	for _, r := range requested {
		if !available[r] || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// nullable maps missing cells to nil so the series survives JSON encoding.
func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !model.Missing(values[i]) {
			out[i] = &values[i]
		}
	}
	return out
}
