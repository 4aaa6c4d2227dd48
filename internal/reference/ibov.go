// Package reference loads the static index composition published by B3.
package reference

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"B3Sentinel/internal/model"
)

// DefaultSuffix qualifies B3 symbols for Yahoo Finance.
const DefaultSuffix = ".SA"

const (
	colSymbol = "Codigo"
	colName   = "Acao"
	colType   = "Tipo"
	colWeight = "Part. (%)"
)

// LoadComposition reads the composition file at path.
func LoadComposition(path, suffix string) ([]model.Ticker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read composition: %v", model.ErrDataUnavailable, err)
	}
	return ParseComposition(bytes.NewReader(data), suffix)
}

// ParseComposition parses a semicolon-delimited composition table and returns
// the tickers sorted by weight, heaviest first.
func ParseComposition(r io.Reader, suffix string) ([]model.Ticker, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read composition: %v", model.ErrDataUnavailable, err)
	}
	if !utf8.Valid(raw) {
		// B3 publishes the file in Latin-1.
		raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: decode composition: %v", model.ErrDataUnavailable, err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse composition: %v", model.ErrDataUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: composition is empty", model.ErrDataUnavailable)
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{colSymbol, colName, colWeight} {
		if _, ok := header[required]; !ok {
			return nil, fmt.Errorf("%w: composition has no %q column", model.ErrDataUnavailable, required)
		}
	}
	typeCol, hasType := header[colType]

	var tickers []model.Ticker
	for line, rec := range records[1:] {
		symbol := field(rec, header[colSymbol])
		weightText := field(rec, header[colWeight])
		if symbol == "" || weightText == "" {
			// footer rows (theoretical quantity, reducer) carry no weight
			continue
		}
		weight, err := ParseLocaleNumber(weightText)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", model.ErrDataUnavailable, line+2, err)
		}
		t := model.Ticker{
			Symbol:      symbol,
			Name:        field(rec, header[colName]),
			Weight:      weight,
			YahooSymbol: symbol + suffix,
		}
		if hasType {
			t.Type = field(rec, typeCol)
		}
		tickers = append(tickers, t)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: composition has no rows", model.ErrDataUnavailable)
	}

	sort.SliceStable(tickers, func(i, j int) bool {
		if tickers[i].Weight != tickers[j].Weight {
			return tickers[i].Weight > tickers[j].Weight
		}
		return tickers[i].Symbol < tickers[j].Symbol
	})
	return tickers, nil
}

// ParseLocaleNumber parses a number written with '.' thousands and ',' decimal separators.
func ParseLocaleNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// Symbols returns the exchange-qualified symbols in composition order.
func Symbols(tickers []model.Ticker) []string {
	out := make([]string, len(tickers))
	for i, t := range tickers {
		out[i] = t.YahooSymbol
	}
	return out
}

// Names maps exchange-qualified symbols to display names.
func Names(tickers []model.Ticker) map[string]string {
	out := make(map[string]string, len(tickers))
	for _, t := range tickers {
		out[t.YahooSymbol] = t.Name
	}
	return out
}
