// Package api exposes the HTTP interface for the scraper service.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/pipeline"
	"github.com/cascadialive/showcrawler/internal/scrape"
	"github.com/cascadialive/showcrawler/internal/syncer"
)

// Runner triggers one pipeline run for the site it covers.
type Runner interface {
	Site() string
	Run(ctx context.Context) (pipeline.Result, error)
}

// Server routes scrape triggers to per-site pipeline runners.
type Server struct {
	router  chi.Router
	runners map[string]Runner
	clock   scrape.Clock
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(runners []Runner, clock scrape.Clock, requestTimeout time.Duration, logger *zap.Logger) *Server {
	s := &Server{
		runners: make(map[string]Runner, len(runners)),
		clock:   clock,
		logger:  logger,
	}
	for _, r := range runners {
		s.runners[r.Site()] = r
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.timeoutMiddleware(requestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/scrape/{site}", s.triggerScrape)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) triggerScrape(w http.ResponseWriter, r *http.Request) {
	site := chi.URLParam(r, "site")
	runner, ok := s.runners[site]
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown site: "+site)
		return
	}

	result, err := runner.Run(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.writeJSON(w, http.StatusOK, scrapeResponse{
		Success:   true,
		Message:   "Scraping completed successfully",
		RunID:     result.RunID,
		Site:      result.Site,
		Shows:     result.Shows,
		Stats:     result.Stats,
		Timestamp: s.clock.Now().UTC().Format(time.RFC3339),
	})
}

// scrapeResponse keeps the four sync counters directly under "stats";
// run metadata rides alongside in the envelope.
type scrapeResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	RunID     string       `json:"runId,omitempty"`
	Site      string       `json:"site,omitempty"`
	Shows     int          `json:"shows"`
	Stats     syncer.Stats `json:"stats"`
	Timestamp string       `json:"timestamp"`
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}
