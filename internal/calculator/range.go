package calculator

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"B3Sentinel/internal/model"
)

// CloseLabel names the only column of a single-ticker chart.
const CloseLabel = "Close"

// FilterRange keeps the rows dated from..to, both inclusive.
func FilterRange(t *model.PriceTable, from, to time.Time) *model.PriceTable {
	out := model.NewPriceTable()
	out.Columns = append(out.Columns, t.Columns...)

	var rows []int
	for i, d := range t.Dates {
		if d.Before(from) || d.After(to) {
			continue
		}
		rows = append(rows, i)
		out.Dates = append(out.Dates, d)
	}
	for _, c := range t.Columns {
		src := t.Values[c]
		col := make([]float64, len(rows))
		for j, i := range rows {
			col[j] = src[i]
		}
		out.Values[c] = col
	}
	return out
}

// SelectColumns keeps the requested columns in request order. Columns the
// table does not carry are ignored; an empty request keeps every column.
func SelectColumns(t *model.PriceTable, symbols []string) *model.PriceTable {
	if len(symbols) == 0 {
		symbols = t.Columns
	}
	out := model.NewPriceTable()
	out.Dates = t.Dates
	for _, s := range symbols {
		if !t.Has(s) || out.Has(s) {
			continue
		}
		out.Columns = append(out.Columns, s)
		out.Values[s] = t.Values[s]
	}
	return out
}

// Relabel renames column from to to, sharing the underlying values.
func Relabel(t *model.PriceTable, from, to string) *model.PriceTable {
	out := model.NewPriceTable()
	out.Dates = t.Dates
	for _, c := range t.Columns {
		name := c
		if c == from {
			name = to
		}
		out.Columns = append(out.Columns, name)
		out.Values[name] = t.Values[c]
	}
	return out
}

// ChartLabels labels a single-column table as CloseLabel for display.
func ChartLabels(t *model.PriceTable) *model.PriceTable {
	if len(t.Columns) != 1 {
		return t
	}
	return Relabel(t, t.Columns[0], CloseLabel)
}

// DateBounds returns the first and last dates of the table.
func DateBounds(t *model.PriceTable) (first, last time.Time, ok bool) {
	if len(t.Dates) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.Dates[0], t.Dates[len(t.Dates)-1], true
}

// PriceBounds scans every observed close and returns the low and the high.
func PriceBounds(t *model.PriceTable) (low, high float64, ok bool) {
	var observed []float64
	for _, c := range t.Columns {
		for _, v := range t.Values[c] {
			if !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
	}
	if len(observed) == 0 {
		return 0, 0, false
	}
	return floats.Min(observed), floats.Max(observed), true
}
