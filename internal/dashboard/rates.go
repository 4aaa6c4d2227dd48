package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"B3Sentinel/internal/calculator"
	"B3Sentinel/internal/model"
	"B3Sentinel/internal/report"
)

// RateQuery holds the rate assumption inputs, in percent of CDI.
type RateQuery struct {
	LCI  float64
	Fund float64
	CDB  float64
}

// DefaultRateQuery returns the usual assumptions for each product.
func DefaultRateQuery() RateQuery {
	return RateQuery{LCI: 85, Fund: 100, CDB: 100}
}

// RatesPage is the rendered state of the rates page.
type RatesPage struct {
	Cards       []report.RateCard      `json:"cards"`
	Merged      *model.MergedRateTable `json:"merged"`
	Series      map[string][]*float64  `json:"series"`
	Assumptions []report.Assumption    `json:"assumptions"`
}

// Rates fetches the three indicators and their expectations, merges the
// monthly history and evaluates the rate assumptions against the last CDI.
// Every failing fetch is reported.
func (s *Service) Rates(ctx context.Context, q RateQuery) (*RatesPage, error) {
	if q.LCI < 0 || q.Fund < 0 || q.CDB < 0 {
		return nil, fmt.Errorf("negative rate assumption: %w", ErrInvalidQuery)
	}

	var errs []error
	series := make([]model.RateSeries, 0, len(model.Indicators))
	cards := make([]report.RateCard, 0, len(model.Indicators))
	for _, ind := range model.Indicators {
		hist, err := s.History(ctx, ind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		expec, err := s.Expectations(ctx, ind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		card, err := s.rateCard(hist, expec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		series = append(series, hist)
		cards = append(cards, card)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	page := &RatesPage{
		Cards:  cards,
		Merged: calculator.MergeMonthly(series...),
		Series: make(map[string][]*float64, len(series)),
	}
	for _, ind := range page.Merged.Columns {
		page.Series[string(ind)] = nullable(page.Merged.Values[ind])
	}

	var lastCDI float64
	for _, c := range cards {
		if c.Indicator == model.CDI {
			lastCDI = c.Value
		}
	}
	page.Assumptions = Assumptions(q, lastCDI)
	return page, nil
}

// Assumptions converts percent-of-CDI inputs into annual rates.
func Assumptions(q RateQuery, cdi float64) []report.Assumption {
	items := []report.Assumption{
		{Label: "LCI / LCA", Percent: q.LCI},
		{Label: "DI fund", Percent: q.Fund},
		{Label: "CDB", Percent: q.CDB},
	}
	for i := range items {
		items[i].Annual = items[i].Percent / 100 * cdi
	}
	return items
}

func (s *Service) rateCard(hist model.RateSeries, expec []model.ExpectationRecord) (report.RateCard, error) {
	last, ok := hist.Last()
	if !ok {
		return report.RateCard{}, fmt.Errorf("%s history: %w", hist.Indicator, model.ErrEmptyResult)
	}
	md := report.ExpectationMarkdown(hist.Indicator, expec)
	html, err := report.MarkdownHTML(md)
	if err != nil {
		return report.RateCard{}, err
	}
	return report.RateCard{
		Indicator:       hist.Indicator,
		Date:            last.Date,
		Value:           float64(last.Value),
		YearMean:        trailingMean(hist.Observations, last.Date.AddDate(-1, 0, 0)),
		Expectation:     md,
		ExpectationHTML: html,
	}, nil
}

// trailingMean averages the observations dated after since.
func trailingMean(obs []model.RateObservation, since time.Time) float64 {
	var values []float64
	for _, o := range obs {
		if o.Date.After(since) {
			values = append(values, float64(o.Value))
		}
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}
