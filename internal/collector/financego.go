package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/rs/zerolog"

	"B3Sentinel/internal/model"
)

// FinanceGoFetcher implements Fetcher with piquette/finance-go chart iterators.
type FinanceGoFetcher struct {
	log zerolog.Logger
}

// NewFinanceGoFetcher creates a finance-go backed fetcher.
func NewFinanceGoFetcher(log zerolog.Logger) *FinanceGoFetcher {
	return &FinanceGoFetcher{log: log.With().Str("fetcher", "financego").Logger()}
}

func (f *FinanceGoFetcher) Name() string { return "financego" }

func (f *FinanceGoFetcher) FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]model.PricePoint, error) {
	b := newBatch(f.Name())
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, model.NewFetchError(f.Name(), err)
		}
		from, to := start, end
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&from),
			End:      datetime.New(&to),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)
		var points []model.PricePoint
		for iter.Next() {
			bar := iter.Bar()
			d := exchangeDay(time.Unix(int64(bar.Timestamp), 0))
			if !inWindow(d, start, end) {
				continue
			}
			points = append(points, model.PricePoint{Date: d, Close: bar.Close.InexactFloat64()})
		}
		if err := iter.Err(); err != nil {
			f.log.Debug().Err(err).Str("symbol", symbol).Msg("chart iteration failed")
			b.fail(fmt.Errorf("%s: %w", symbol, err))
			continue
		}
		b.add(symbol, points)
	}
	return b.result(len(symbols))
}
