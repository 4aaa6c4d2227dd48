package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"B3Sentinel/internal/dashboard"
	"B3Sentinel/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"stocks", "rates", "error"}

type views struct {
	pages map[string]*template.Template
}

type ratesView struct {
	*dashboard.RatesPage
	Query dashboard.RateQuery
}

type errorView struct {
	Status  int
	Title   string
	Message string
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format(time.DateOnly) },
	"labels": func(dates []time.Time) []string {
		out := make([]string, len(dates))
		for i, d := range dates {
			out[i] = d.Format(time.DateOnly)
		}
		return out
	},
	"selected": func(selected []string, symbol string) bool {
		for _, s := range selected {
			if s == symbol {
				return true
			}
		}
		return false
	},
	"direction": func(d model.Direction) string { return d.String() },
	// Expectation HTML is rendered from markdown this process generated.
	"trusted": func(s string) template.HTML { return template.HTML(s) },
}

func loadViews() (*views, error) {
	v := &views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	s.renderStatus(w, http.StatusOK, name, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.views.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log.Error().Err(err).Str("template", name).Msg("Failed to render page")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	s.logError(status, err)
	s.renderStatus(w, status, "error", errorView{
		Status:  status,
		Title:   http.StatusText(status),
		Message: err.Error(),
	})
}
