package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/snow-rank/internal/observability"
	"github.com/couchcryptid/snow-rank/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ranker runs one ranking request. *pipeline.Pipeline implements it.
type Ranker interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Server exposes the rankings API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	ranker     Ranker
	topN       int
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /rankings, /healthz, /readyz, and /metrics routes.
// topN is the ranking length used when a request does not ask for one.
func NewServer(addr string, ranker Ranker, ready sharedobs.ReadinessChecker, topN int, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ranker:  ranker,
		topN:    topN,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /rankings", s.handleRankings)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // response already committed
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
