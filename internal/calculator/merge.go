package calculator

import (
	"math"
	"sort"
	"time"

	"B3Sentinel/internal/model"
)

// FirstOfMonth keeps the observations dated on the first day of a month.
func FirstOfMonth(obs []model.RateObservation) []model.RateObservation {
	var out []model.RateObservation
	for _, o := range obs {
		if o.Date.Day() == 1 {
			out = append(out, o)
		}
	}
	return out
}

// Nearest returns the observation whose date is closest to target.
// obs must be date-ascending. Equidistant candidates resolve to the earlier date.
func Nearest(obs []model.RateObservation, target time.Time) (model.RateObservation, bool) {
	if len(obs) == 0 {
		return model.RateObservation{}, false
	}
	i := sort.Search(len(obs), func(i int) bool { return !obs[i].Date.Before(target) })
	switch {
	case i == 0:
		return obs[0], true
	case i == len(obs):
		return obs[len(obs)-1], true
	}
	before, after := obs[i-1], obs[i]
	if target.Sub(before.Date) <= after.Date.Sub(target) {
		return before, true
	}
	return after, true
}

// MergeMonthly outer-joins the first-of-month observations of every series on
// date and fills each empty cell with the value of the nearest date in that
// column's full series.
func MergeMonthly(series ...model.RateSeries) *model.MergedRateTable {
	table := &model.MergedRateTable{
		Values:  make(map[model.Indicator][]float64, len(series)),
		Imputed: make(map[model.Indicator][]bool, len(series)),
	}

	full := make(map[model.Indicator][]model.RateObservation, len(series))
	monthly := make(map[model.Indicator]map[time.Time]float32, len(series))
	dates := make(map[time.Time]struct{})
	for _, s := range series {
		obs := ascending(s.Observations)
		full[s.Indicator] = obs
		table.Columns = append(table.Columns, s.Indicator)

		cells := make(map[time.Time]float32)
		for _, o := range FirstOfMonth(obs) {
			cells[o.Date] = o.Value
			dates[o.Date] = struct{}{}
		}
		monthly[s.Indicator] = cells
	}

	for d := range dates {
		table.Dates = append(table.Dates, d)
	}
	sort.Slice(table.Dates, func(i, j int) bool { return table.Dates[i].Before(table.Dates[j]) })

	for _, ind := range table.Columns {
		values := make([]float64, len(table.Dates))
		imputed := make([]bool, len(table.Dates))
		for i, d := range table.Dates {
			if v, ok := monthly[ind][d]; ok {
				values[i] = float64(v)
				continue
			}
			if o, ok := Nearest(full[ind], d); ok {
				values[i] = float64(o.Value)
				imputed[i] = true
				continue
			}
			values[i] = math.NaN()
		}
		table.Values[ind] = values
		table.Imputed[ind] = imputed
	}
	return table
}

func ascending(obs []model.RateObservation) []model.RateObservation {
	less := func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) }
	if sort.SliceIsSorted(obs, less) {
		return obs
	}
	out := append([]model.RateObservation(nil), obs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
