package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"B3Sentinel/internal/cache"
	"B3Sentinel/internal/calculator"
	"B3Sentinel/internal/collector"
	"B3Sentinel/internal/model"
)

const composition = `Codigo;Acao;Tipo;Qtde. Teorica;Part. (%)
PETR4;PETROBRAS;PN N2;4.566.445.852;7,156
VALE3;VALE;ON NM;4.196.924.316;11,164
ITUB4;ITAUUNIBANCO;PN ED N1;5.316.249.016;8,009
BBDC4;BRADESCO;PN N1;5.221.000.000;3,100
ABEV3;AMBEV S/A;ON;4.394.835.131;2,567
GONE3;DELISTED;ON;1.000;0,500
Quantidade Teorica Total;;;43.000.000.000;
`

type fixedClock time.Time

func (c fixedClock) Today() time.Time { return time.Time(c) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func closes(values ...float64) []model.PricePoint {
	out := make([]model.PricePoint, len(values))
	for i, v := range values {
		out[i] = model.PricePoint{Date: day(2024, 1, 2+i), Close: v}
	}
	return out
}

type fakeRates struct {
	mu          sync.Mutex
	history     map[int][]model.RateObservation
	expectation map[model.Indicator][]model.ExpectationRecord
	historyErr  map[int]error
	histCalls   int
	expecCalls  int
}

func (f *fakeRates) Expectations(_ context.Context, ind model.Indicator, _ model.Horizon) ([]model.ExpectationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expecCalls++
	return f.expectation[ind], nil
}

func (f *fakeRates) History(_ context.Context, code int, _, _ time.Time) ([]model.RateObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histCalls++
	if err := f.historyErr[code]; err != nil {
		return nil, err
	}
	return f.history[code], nil
}

func newFakeRates() *fakeRates {
	obs := func(values ...float32) []model.RateObservation {
		dates := []time.Time{day(2023, 12, 1), day(2023, 12, 29), day(2024, 1, 1), day(2024, 2, 2)}
		out := make([]model.RateObservation, len(values))
		for i, v := range values {
			out[i] = model.RateObservation{Date: dates[i], Value: v}
		}
		return out
	}
	records := func(ind model.Indicator, means ...float64) []model.ExpectationRecord {
		out := make([]model.ExpectationRecord, len(means))
		for i, m := range means {
			out[i] = model.ExpectationRecord{Indicator: ind, ReferenceYear: 2024 + i, Mean: m}
		}
		return out
	}
	return &fakeRates{
		history: map[int][]model.RateObservation{
			432:   obs(11.75, 11.75, 11.65, 11.15),
			13522: obs(4.68, 4.62, 4.51, 4.50),
			4389:  obs(11.65, 11.65, 11.65, 11.15),
		},
		expectation: map[model.Indicator][]model.ExpectationRecord{
			model.Selic: records(model.Selic, 15, 12.25),
			model.IPCA:  records(model.IPCA, 5.5, 4.5),
		},
		historyErr: map[int]error{},
	}
}

type fixture struct {
	svc     *Service
	fetcher *collector.MockFetcher
	rates   *fakeRates
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ibov.csv")
	require.NoError(t, os.WriteFile(path, []byte(composition), 0o644))

	fetcher := &collector.MockFetcher{Closes: map[string][]model.PricePoint{
		"VALE3.SA": closes(80, 78, 79, 72),
		"ITUB4.SA": closes(30, 31, 32, 33),
		"PETR4.SA": closes(40, 41, 42, 44),
		"BBDC4.SA": closes(15, 15, 14, 15),
		"ABEV3.SA": closes(12, 13, 11, 12),
	}}
	rates := newFakeRates()

	opts := DefaultOptions()
	opts.CompositionPath = path
	opts.MarketStart = day(2024, 1, 1)
	opts.RatesStart = day(2023, 1, 1)

	log := zerolog.Nop()
	svc := NewService(collector.NewCollector(fetcher, log), rates, cache.New(log), fixedClock(day(2024, 2, 10)), opts, log)
	return &fixture{svc: svc, fetcher: fetcher, rates: rates}
}

func TestStocks_Defaults(t *testing.T) {
	f := newFixture(t)

	page, err := f.svc.Stocks(context.Background(), StockQuery{})
	require.NoError(t, err)

	assert.Equal(t, day(2024, 1, 2), page.MinDate)
	assert.Equal(t, day(2024, 1, 5), page.MaxDate)
	assert.Equal(t, page.MinDate, page.From)
	assert.Equal(t, page.MaxDate, page.To)
	assert.Len(t, page.Options, 5)
	assert.Equal(t, []string{"VALE3.SA", "ITUB4.SA", "PETR4.SA", "BBDC4.SA", "ABEV3.SA"}, page.Selected)
	assert.Equal(t, 11.0, page.Low)
	assert.Equal(t, 80.0, page.High)

	require.Len(t, page.CardRows, 1)
	require.Len(t, page.CardRows[0], 5)
	assert.Equal(t, "VALE", page.CardRows[0][0].Name)
	assert.Equal(t, "↓ -10.0%", page.CardRows[0][0].Return)
	assert.Equal(t, "↑ 10.0%", page.CardRows[0][2].Return)
	assert.Equal(t, "0.0%", page.CardRows[0][3].Return)

	_, err = f.svc.Stocks(context.Background(), StockQuery{From: day(2024, 1, 3)})
	require.NoError(t, err)
	assert.Equal(t, 1, f.fetcher.Calls())
}

func TestStocks_SingleTickerMatchesFullSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	full, err := f.svc.Stocks(ctx, StockQuery{})
	require.NoError(t, err)

	for _, want := range full.Returns {
		page, err := f.svc.Stocks(ctx, StockQuery{Tickers: []string{want.Symbol}})
		require.NoError(t, err)

		assert.Equal(t, []string{calculator.CloseLabel}, page.Chart.Columns)
		require.Len(t, page.Returns, 1)
		assert.Equal(t, want.Symbol, page.Returns[0].Symbol)
		assert.Equal(t, want.Return, page.Returns[0].Return)
		assert.Equal(t, want.Name, page.Returns[0].Name)
	}
}

func TestStocks_SingleRowRangeIsFlat(t *testing.T) {
	f := newFixture(t)
	page, err := f.svc.Stocks(context.Background(), StockQuery{From: day(2024, 1, 3), To: day(2024, 1, 3)})
	require.NoError(t, err)

	require.NotEmpty(t, page.Returns)
	for _, p := range page.Returns {
		assert.Equal(t, 0.0, p.Return, p.Symbol)
		assert.Equal(t, model.Flat, p.Direction, p.Symbol)
	}
}

func TestStocks_RequestedTickers(t *testing.T) {
	f := newFixture(t)
	page, err := f.svc.Stocks(context.Background(), StockQuery{Tickers: []string{"ABEV3.SA", "GONE3.SA", "VALE3.SA", "ABEV3.SA"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ABEV3.SA", "VALE3.SA"}, page.Selected)
	assert.Equal(t, []string{"ABEV3.SA", "VALE3.SA"}, page.Chart.Columns)
}

func TestStocks_InvalidQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Stocks(ctx, StockQuery{From: day(2024, 1, 5), To: day(2024, 1, 3)})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = f.svc.Stocks(ctx, StockQuery{Tickers: []string{"GONE3.SA"}})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestStocks_FetchErrorNotCached(t *testing.T) {
	f := newFixture(t)
	f.fetcher.Err = model.NewFetchError("mock", errors.New("connection refused"))

	_, err := f.svc.Stocks(context.Background(), StockQuery{})
	require.ErrorIs(t, err, model.ErrFetch)

	f.fetcher.Err = nil
	_, err = f.svc.Stocks(context.Background(), StockQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.fetcher.Calls())
}

// chartJSON answers every symbol with two January closes.
const chartJSON = `{"chart":{"result":[{"meta":{"gmtoffset":-10800},
"timestamp":[1704200400,1704286800],
"indicators":{"quote":[{"close":[10,11]}]}}],"error":null}}`

func TestStocks_InterruptedFetchNotCached(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 2 {
			cancel()
		}
		fmt.Fprint(w, chartJSON)
	}))
	t.Cleanup(srv.Close)
	f.svc.collector = collector.NewCollector(collector.NewYahooFetcher(srv.URL, "", 5*time.Second, zerolog.Nop()), zerolog.Nop())

	_, err := f.svc.Stocks(ctx, StockQuery{})
	require.ErrorIs(t, err, model.ErrFetch)

	before := requests.Load()
	page, err := f.svc.Stocks(context.Background(), StockQuery{})
	require.NoError(t, err)
	assert.Greater(t, requests.Load(), before)
	assert.Len(t, page.Selected, 5)
}

func TestStocks_MissingComposition(t *testing.T) {
	f := newFixture(t)
	f.svc.opts.CompositionPath = filepath.Join(t.TempDir(), "missing.csv")

	_, err := f.svc.Stocks(context.Background(), StockQuery{})
	assert.ErrorIs(t, err, model.ErrDataUnavailable)
}

func TestRates(t *testing.T) {
	f := newFixture(t)

	page, err := f.svc.Rates(context.Background(), DefaultRateQuery())
	require.NoError(t, err)

	require.Len(t, page.Cards, 3)
	assert.Equal(t, model.Selic, page.Cards[0].Indicator)
	assert.Equal(t, "02/02/2024", page.Cards[0].DateText())
	assert.InDelta(t, 11.15, page.Cards[0].Value, 1e-5)

	cdi := page.Cards[2]
	assert.Equal(t, model.CDI, cdi.Indicator)
	assert.Contains(t, cdi.Expectation, "**CDI**")
	assert.Contains(t, cdi.Expectation, "- In 2024: 14,90% p.a.")
	assert.Contains(t, cdi.Expectation, "- After 2025: 12,15% p.a.")
	assert.Contains(t, cdi.ExpectationHTML, "<strong>CDI</strong>")

	assert.Equal(t, []model.Indicator{model.Selic, model.IPCA, model.CDI}, page.Merged.Columns)
	assert.Equal(t, []time.Time{day(2023, 12, 1), day(2024, 1, 1)}, page.Merged.Dates)
	assert.Contains(t, page.Series, "CDI")

	require.Len(t, page.Assumptions, 3)
	assert.InDelta(t, 0.85*11.15, page.Assumptions[0].Annual, 1e-4)
	assert.InDelta(t, 11.15, page.Assumptions[2].Annual, 1e-4)

	_, err = f.svc.Rates(context.Background(), DefaultRateQuery())
	require.NoError(t, err)
	assert.Equal(t, 3, f.rates.histCalls)
	assert.Equal(t, 2, f.rates.expecCalls)
}

func TestRates_JoinsFailures(t *testing.T) {
	f := newFixture(t)
	f.rates.historyErr[432] = model.NewFetchError("bcb sgs 432", errors.New("status 500"))
	f.rates.historyErr[4389] = model.NewFetchError("bcb sgs 4389", errors.New("status 503"))

	_, err := f.svc.Rates(context.Background(), DefaultRateQuery())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrFetch)
	assert.Contains(t, err.Error(), "Selic history")
	assert.Contains(t, err.Error(), "CDI history")
	assert.NotContains(t, err.Error(), "IPCA")
}

func TestRates_InvalidQuery(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Rates(context.Background(), RateQuery{LCI: -1, Fund: 100, CDB: 100})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestAssumptions(t *testing.T) {
	items := Assumptions(RateQuery{LCI: 85, Fund: 100, CDB: 110}, 10)
	assert.Equal(t, "LCI / LCA", items[0].Label)
	assert.InDelta(t, 8.5, items[0].Annual, 1e-9)
	assert.InDelta(t, 10, items[1].Annual, 1e-9)
	assert.InDelta(t, 11, items[2].Annual, 1e-9)
}
