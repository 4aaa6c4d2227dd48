package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"B3Sentinel/internal/dashboard"
	"B3Sentinel/internal/model"
)

var errBadParam = errors.New("bad query parameter")

func (s *Server) handleComposition(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.pages.Composition()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tickers)
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	q, err := parseStockQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	page, err := s.pages.Stocks(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	q, err := parseRateQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	page, err := s.pages.Rates(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleStocksPage(w http.ResponseWriter, r *http.Request) {
	q, err := parseStockQuery(r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	page, err := s.pages.Stocks(r.Context(), q)
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.render(w, "stocks", page)
}

func (s *Server) handleRatesPage(w http.ResponseWriter, r *http.Request) {
	q, err := parseRateQuery(r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	page, err := s.pages.Rates(r.Context(), q)
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.render(w, "rates", ratesView{RatesPage: page, Query: q})
}

// parseStockQuery reads from, to (YYYY-MM-DD) and tickers. Tickers may be
// repeated or comma separated.
func parseStockQuery(r *http.Request) (dashboard.StockQuery, error) {
	var q dashboard.StockQuery
	values := r.URL.Query()

	var err error
	if q.From, err = parseDate(values.Get("from")); err != nil {
		return q, fmt.Errorf("from: %w", err)
	}
	if q.To, err = parseDate(values.Get("to")); err != nil {
		return q, fmt.Errorf("to: %w", err)
	}
	for _, v := range values["tickers"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
				q.Tickers = append(q.Tickers, t)
			}
		}
	}
	return q, nil
}

func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a YYYY-MM-DD date: %w", v, errBadParam)
	}
	return t, nil
}

// parseRateQuery reads the lci, fund and cdb percentages of CDI.
func parseRateQuery(r *http.Request) (dashboard.RateQuery, error) {
	q := dashboard.DefaultRateQuery()
	values := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"lci", &q.LCI}, {"fund", &q.Fund}, {"cdb", &q.CDB}} {
		v := values.Get(p.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
		if err != nil {
			return q, fmt.Errorf("%s %q is not a number: %w", p.name, v, errBadParam)
		}
		*p.dst = f
	}
	return q, nil
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadParam), errors.Is(err, dashboard.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrDataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrEmptyResult):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	s.logError(status, err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) logError(status int, err error) {
	ev := s.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = s.log.Error()
	}
	ev.Err(err).Int("status", status).Msg("request failed")
}
