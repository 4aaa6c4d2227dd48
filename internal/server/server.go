// Package server exposes the dashboard pages and their JSON API over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"B3Sentinel/internal/dashboard"
	"B3Sentinel/internal/model"
)

// Pages builds the dashboard pages.
type Pages interface {
	Today() time.Time
	Composition() ([]model.Ticker, error)
	Stocks(ctx context.Context, q dashboard.StockQuery) (*dashboard.StockPage, error)
	Rates(ctx context.Context, q dashboard.RateQuery) (*dashboard.RatesPage, error)
}

// Config holds server configuration
type Config struct {
	Port    int
	Log     zerolog.Logger
	Pages   Pages
	DevMode bool
}

// Server is the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	pages  Pages
	views  *views
	port   int
	log    zerolog.Logger
}

// New creates a new HTTP server
func New(cfg Config) (*Server, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	s := &Server{
		router: chi.NewRouter(),
		pages:  cfg.Pages,
		views:  v,
		port:   cfg.Port,
		log:    cfg.Log.With().Str("component", "server").Logger(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	// A cold page build fetches every constituent's history.
	s.router.Use(middleware.Timeout(75 * time.Second))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/stocks", http.StatusFound)
	})
	s.router.Get("/stocks", s.handleStocksPage)
	s.router.Get("/rates", s.handleRatesPage)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/composition", s.handleComposition)
		r.Get("/stocks", s.handleStocks)
		r.Get("/rates", s.handleRates)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"today":  s.pages.Today().Format(time.DateOnly),
	})
}
