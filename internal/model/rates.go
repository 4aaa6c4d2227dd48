package model

import (
	"fmt"
	"time"
)

// Indicator names a macro rate series.
type Indicator string

const (
	Selic Indicator = "Selic"
	IPCA  Indicator = "IPCA"
	CDI   Indicator = "CDI"
)

// Indicators lists the dashboard indicators in display order.
var Indicators = []Indicator{Selic, IPCA, CDI}

// RateObservation is one value of an indicator, in percent per annum.
type RateObservation struct {
	Date  time.Time `json:"date"`
	Value float32   `json:"value"`
}

// RateSeries is a date-ascending sequence of observations.
type RateSeries struct {
	Indicator    Indicator         `json:"indicator"`
	Observations []RateObservation `json:"observations"`
}

// Last returns the most recent observation.
func (s RateSeries) Last() (RateObservation, bool) {
	if len(s.Observations) == 0 {
		return RateObservation{}, false
	}
	return s.Observations[len(s.Observations)-1], true
}

// MergedRateTable joins several indicators on date.
type MergedRateTable struct {
	Dates   []time.Time             `json:"dates"`
	Columns []Indicator             `json:"columns"`
	Values  map[Indicator][]float64 `json:"-"`
	// Imputed marks cells copied from the nearest date of the full series.
	Imputed map[Indicator][]bool `json:"-"`
}

// Horizon is the BCB calculation type of an expectation.
type Horizon string

const (
	ShortTerm  Horizon = "C"
	MediumTerm Horizon = "M"
	LongTerm   Horizon = "L"
)

// ParseHorizon validates a horizon code.
func ParseHorizon(s string) (Horizon, error) {
	switch h := Horizon(s); h {
	case ShortTerm, MediumTerm, LongTerm:
		return h, nil
	}
	return "", fmt.Errorf("invalid horizon %q (must be C, M or L)", s)
}

// ExpectationRecord is the market consensus for one indicator and reference year.
type ExpectationRecord struct {
	Indicator     Indicator `json:"indicator"`
	Date          string    `json:"date"`
	ReferenceYear int       `json:"reference_year"`
	Horizon       Horizon   `json:"horizon"`
	Mean          float64   `json:"mean"`
	Median        float64   `json:"median"`
	StdDev        float64   `json:"std_dev"`
	Min           float64   `json:"min"`
	Max           float64   `json:"max"`
	Respondents   int       `json:"respondents"`
}
