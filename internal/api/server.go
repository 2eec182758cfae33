// Package api exposes the operator HTTP surface for ingestion jobs.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/billtext-ingest/internal/render"
	"github.com/JakeFAU/billtext-ingest/internal/stats"
)

// ProgressSource supplies the per-worker counters from the most recent
// render tick.
type ProgressSource interface {
	Views() []stats.View
}

// Config carries the server's own settings plus the job parameters the
// progress endpoint reports against.
type Config struct {
	Addr           string
	APIKey         string
	RequestTimeout time.Duration
	JobLimit       int
	JobWorkers     int
}

// Server wires HTTP handlers to the running job's progress state.
type Server struct {
	router  chi.Router
	source  ProgressSource
	metrics http.Handler
	cfg     Config
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The metrics
// handler is typically promhttp.Handler(); nil disables the endpoint.
func NewServer(source ProgressSource, metrics http.Handler, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		source:  source,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(cfg.RequestTimeout))
	if cfg.APIKey != "" {
		r.Use(apiKeyMiddleware(cfg.APIKey))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/progress", s.progress)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if s.source == nil {
		writeError(w, http.StatusServiceUnavailable, "no job running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type workerProgress struct {
	Worker     int    `json:"worker"`
	Percent    int    `json:"percent"`
	Processed  int64  `json:"processed"`
	Successful int64  `json:"successful"`
	Failed     int64  `json:"failed"`
	WithText   int64  `json:"with_text"`
	Current    string `json:"current,omitempty"`
}

type progressResponse struct {
	Percent    int              `json:"percent"`
	Limit      int              `json:"limit"`
	Processed  int64            `json:"processed"`
	Successful int64            `json:"successful"`
	Failed     int64            `json:"failed"`
	WithText   int64            `json:"with_text"`
	Workers    []workerProgress `json:"workers"`
}

// progress serves the same snapshot the terminal renderer draws, as JSON.
func (s *Server) progress(w http.ResponseWriter, _ *http.Request) {
	if s.source == nil {
		writeError(w, http.StatusServiceUnavailable, "no job running")
		return
	}
	views := s.source.Views()
	snap := stats.AggregateViews(views)
	opts := render.Options{Limit: s.cfg.JobLimit, ThreadCount: s.cfg.JobWorkers}
	target := render.WorkerTarget(opts)

	resp := progressResponse{
		Percent:    render.Percent(snap.Processed, float64(opts.Limit)),
		Limit:      opts.Limit,
		Processed:  snap.Processed,
		Successful: snap.Successful,
		Failed:     snap.Failed,
		WithText:   snap.WithText,
		Workers:    make([]workerProgress, 0, len(views)),
	}
	for _, v := range views {
		wp := workerProgress{
			Worker:     v.Worker,
			Percent:    render.Percent(v.Processed, target),
			Processed:  v.Processed,
			Successful: v.Successful,
			Failed:     v.Failed,
			WithText:   v.WithText,
		}
		if v.Current != nil {
			wp.Current = v.Current.String()
		}
		resp.Workers = append(resp.Workers, wp)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
