package model

import (
	"math"
	"time"
)

// Ticker is one constituent of the index composition.
type Ticker struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Type        string  `json:"type,omitempty"`
	Weight      float64 `json:"weight"` // percent of the index
	YahooSymbol string  `json:"yahoo_symbol"`
}

// PricePoint is a single daily close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries holds date-ascending closes for one symbol.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// PriceTable is a date-indexed table of closes, one column per symbol.
// Missing cells hold NaN.
type PriceTable struct {
	Dates   []time.Time          `json:"dates"`
	Columns []string             `json:"columns"`
	Values  map[string][]float64 `json:"-"`
}

// NewPriceTable returns an empty table.
func NewPriceTable() *PriceTable {
	return &PriceTable{Values: make(map[string][]float64)}
}

// Len returns the number of rows.
func (t *PriceTable) Len() int { return len(t.Dates) }

// Empty reports whether the table has no rows or no columns.
func (t *PriceTable) Empty() bool { return len(t.Dates) == 0 || len(t.Columns) == 0 }

// Has reports whether the table carries the column.
func (t *PriceTable) Has(column string) bool {
	_, ok := t.Values[column]
	return ok
}

// Column returns the values of a column, nil if absent.
func (t *PriceTable) Column(column string) []float64 { return t.Values[column] }

// Day truncates a timestamp to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Missing reports whether a cell is empty.
func Missing(v float64) bool { return math.IsNaN(v) }
