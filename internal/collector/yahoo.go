package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"B3Sentinel/internal/model"
)

// DefaultYahooURL is the public Yahoo Finance chart host.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL, proxyURL string, timeout time.Duration, log zerolog.Logger) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YahooFetcher{
		client: client,
		log:    log.With().Str("fetcher", "yahoo").Logger(),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol    string `json:"symbol"`
				GMTOffset int64  `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]model.PricePoint, error) {
	b := newBatch(f.Name())
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, model.NewFetchError(f.Name(), err)
		}
		points, found, err := f.fetchChart(ctx, symbol, start, end)
		switch {
		case ctx.Err() != nil:
			return nil, model.NewFetchError(f.Name(), ctx.Err())
		case err != nil:
			f.log.Warn().Err(err).Str("symbol", symbol).Msg("chart request failed")
			b.fail(err)
		case !found:
			f.log.Debug().Str("symbol", symbol).Msg("symbol unknown to provider")
		default:
			b.add(symbol, points)
		}
	}
	return b.result(len(symbols))
}

// fetchChart returns found=false when Yahoo answers that the symbol does not exist.
func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, bool, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"period1":  strconv.FormatInt(start.Unix(), 10),
			"period2":  strconv.FormatInt(end.Unix(), 10),
			"interval": "1d",
			"events":   "history",
		}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, false, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return nil, false, fmt.Errorf("yahoo fetch %s: status %d", symbol, resp.StatusCode())
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, false, fmt.Errorf("yahoo decode %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil || resp.StatusCode() == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, false, fmt.Errorf("yahoo fetch %s: status %d", symbol, resp.StatusCode())
	}
	if len(chart.Chart.Result) == 0 {
		return nil, false, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, false, nil
	}
	closes := result.Indicators.Quote[0].Close
	points := make([]model.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // null bars (holidays etc.)
		}
		d := model.Day(time.Unix(ts+result.Meta.GMTOffset, 0).UTC())
		if !inWindow(d, start, end) {
			continue
		}
		points = append(points, model.PricePoint{Date: d, Close: *closes[i]})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, len(points) > 0, nil
}
