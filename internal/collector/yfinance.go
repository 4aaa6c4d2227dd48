package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/multi"

	"B3Sentinel/internal/model"
)

// YFinanceFetcher implements Fetcher with a single go-yfinance batch download.
type YFinanceFetcher struct {
	log zerolog.Logger
}

// NewYFinanceFetcher creates a batch Yahoo fetcher.
func NewYFinanceFetcher(log zerolog.Logger) *YFinanceFetcher {
	return &YFinanceFetcher{log: log.With().Str("fetcher", "yfinance").Logger()}
}

func (f *YFinanceFetcher) Name() string { return "yfinance" }

func (f *YFinanceFetcher) FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]model.PricePoint, error) {
	if len(symbols) == 0 {
		return map[string][]model.PricePoint{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, model.NewFetchError(f.Name(), err)
	}

	params := downloadParams(symbols, start, end)
	result, err := multi.Download(symbols, &params)
	if err != nil {
		return nil, model.NewFetchError(f.Name(), fmt.Errorf("batch download: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return nil, model.NewFetchError(f.Name(), err)
	}

	b := newBatch(f.Name())
	for _, symbol := range symbols {
		if bars, ok := result.Data[symbol]; ok && len(bars) > 0 {
			points := make([]model.PricePoint, 0, len(bars))
			for _, bar := range bars {
				d := exchangeDay(bar.Date)
				if !inWindow(d, start, end) {
					continue
				}
				points = append(points, model.PricePoint{Date: d, Close: bar.Close})
			}
			b.add(symbol, points)
		} else if err, ok := result.Errors[symbol]; ok {
			f.log.Debug().Err(err).Str("symbol", symbol).Msg("no data for symbol")
			b.fail(err)
		}
	}
	return b.result(len(symbols))
}

// downloadParams asks for daily bars inside [start, end) only.
func downloadParams(symbols []string, start, end time.Time) models.DownloadParams {
	params := models.DefaultDownloadParams()
	params.Symbols = symbols
	params.Period = ""
	params.Start = &start
	params.End = &end
	params.Interval = "1d"
	return params
}
