package collector

import (
	"context"
	"errors"
	"time"

	"B3Sentinel/internal/model"
)

// Fetcher retrieves daily closes from a quote provider.
//
// FetchCloses returns the closes of every requested symbol the provider knows
// inside [start, end). Unknown symbols are simply absent from the result. An
// error is returned only when the provider itself cannot be reached.
type Fetcher interface {
	FetchCloses(ctx context.Context, symbols []string, start, end time.Time) (map[string][]model.PricePoint, error)
	Name() string
}

// batch accumulates per-symbol outcomes of one provider call.
type batch struct {
	source   string
	closes   map[string][]model.PricePoint
	failures []error
}

func newBatch(source string) *batch {
	return &batch{source: source, closes: make(map[string][]model.PricePoint)}
}

func (b *batch) add(symbol string, points []model.PricePoint) {
	if len(points) > 0 {
		b.closes[symbol] = points
	}
}

func (b *batch) fail(err error) { b.failures = append(b.failures, err) }

// result treats the provider as unreachable when every symbol failed or any
// request was cut short by its context. A partial table is never returned
// for an interrupted call.
func (b *batch) result(requested int) (map[string][]model.PricePoint, error) {
	for _, err := range b.failures {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, model.NewFetchError(b.source, err)
		}
	}
	if requested > 0 && len(b.closes) == 0 && len(b.failures) == requested {
		return nil, model.NewFetchError(b.source, errors.Join(b.failures...))
	}
	return b.closes, nil
}

func inWindow(d, start, end time.Time) bool {
	return !d.Before(start) && d.Before(end)
}

var saoPaulo = func() *time.Location {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}()

// exchangeDay maps a bar timestamp to its B3 trading day.
func exchangeDay(t time.Time) time.Time {
	return model.Day(t.In(saoPaulo))
}
