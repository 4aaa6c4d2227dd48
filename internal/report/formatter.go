// Package report formats pipeline results for the web pages and the terminal.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"

	"B3Sentinel/internal/model"
)

// CardsPerRow is the number of performance cards in one row.
const CardsPerRow = 5

// DateLayout is the display layout of observation dates.
const DateLayout = "02/01/2006"

// Card is the display form of a ticker's performance.
type Card struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Initial   string          `json:"initial"`
	Final     string          `json:"final"`
	Return    string          `json:"return"`
	Direction model.Direction `json:"direction"`
}

// NewCard formats a performance for display.
func NewCard(p model.Performance) Card {
	return Card{
		Symbol:    p.Symbol,
		Name:      p.Name,
		Initial:   BRL(p.Initial),
		Final:     BRL(p.Final),
		Return:    ReturnText(p.Return),
		Direction: p.Direction,
	}
}

// Cards formats every performance.
func Cards(perf []model.Performance) []Card {
	out := make([]Card, len(perf))
	for i, p := range perf {
		out[i] = NewCard(p)
	}
	return out
}

// Rows splits items into consecutive rows of at most n.
func Rows[T any](items []T, n int) [][]T {
	if n <= 0 {
		n = CardsPerRow
	}
	var rows [][]T
	for i := 0; i < len(items); i += n {
		end := i + n
		if end > len(items) {
			end = len(items)
		}
		rows = append(rows, items[i:end])
	}
	return rows
}

// ReturnText renders a fractional return with one decimal. Positive returns
// get an up arrow, negative a down arrow, zero no mark.
func ReturnText(r float64) string {
	pct := fmt.Sprintf("%.1f%%", r*100)
	switch {
	case r > 0:
		return "↑ " + pct
	case r < 0:
		return "↓ " + pct
	default:
		return pct
	}
}

// BRL formats a price in reais.
func BRL(v float64) string {
	cur := *money.New(0, money.BRL).Currency()
	cents := decimal.NewFromFloat(v).Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(cents.IntPart())
}

// RatePercent formats an annual rate.
func RatePercent(v float64) string {
	return fmt.Sprintf("%.2f%% a.a.", v)
}

// ExpectationMarkdown lists the mean expectation per reference year, then
// repeats the last year's value as the long-run level.
func ExpectationMarkdown(indicator model.Indicator, records []model.ExpectationRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**%s** \n", indicator))
	var last string
	for _, r := range records {
		last = fmt.Sprintf("%d: %s%% p.a.  \n", r.ReferenceYear, decimalComma(r.Mean))
		b.WriteString("- In " + last)
	}
	if last != "" {
		b.WriteString("- After " + last)
	}
	return b.String()
}

// MarkdownHTML renders markdown to HTML.
func MarkdownHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func decimalComma(v float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}

// RateCard is the display form of an indicator's latest value.
type RateCard struct {
	Indicator       model.Indicator `json:"indicator"`
	Date            time.Time       `json:"date"`
	Value           float64         `json:"value"`
	YearMean        float64         `json:"year_mean"`
	Expectation     string          `json:"expectation"`
	ExpectationHTML string          `json:"expectation_html"`
}

// DateText returns the observation date as dd/mm/yyyy.
func (c RateCard) DateText() string { return c.Date.Format(DateLayout) }

// ValueText returns the value as an annual rate.
func (c RateCard) ValueText() string { return RatePercent(c.Value) }

// Assumption is a user rate expressed as a percentage of CDI.
type Assumption struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
	Annual  float64 `json:"annual"`
}

// AnnualText returns the equivalent annual rate.
func (a Assumption) AnnualText() string { return RatePercent(a.Annual) }
