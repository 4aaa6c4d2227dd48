package calculator

import (
	"math"

	"B3Sentinel/internal/model"
)

// PeriodReturn is the signed fractional change from first to last.
func PeriodReturn(first, last float64) float64 {
	return last/first - 1
}

// DirectionOf classifies a return as up, down or flat.
func DirectionOf(r float64) model.Direction {
	switch {
	case r > 0:
		return model.Up
	case r < 0:
		return model.Down
	default:
		return model.Flat
	}
}

// Returns computes the period return of every column of table, from its first
// to its last observed close. Columns without observations are skipped.
func Returns(table *model.PriceTable, names map[string]string) []model.Performance {
	var out []model.Performance
	for _, symbol := range table.Columns {
		first, last, ok := endpoints(table.Column(symbol))
		if !ok {
			continue
		}
		r := PeriodReturn(first, last)
		out = append(out, model.Performance{
			Symbol:    symbol,
			Name:      names[symbol],
			Initial:   first,
			Final:     last,
			Return:    r,
			Direction: DirectionOf(r),
		})
	}
	return out
}

func endpoints(values []float64) (first, last float64, ok bool) {
	lo, hi := -1, -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if lo < 0 {
			lo = i
		}
		hi = i
	}
	if lo < 0 || values[lo] == 0 {
		return 0, 0, false
	}
	return values[lo], values[hi], true
}
