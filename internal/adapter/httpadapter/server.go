package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ThresholdReader returns the cached threshold set of a chart, or nil when
// none has been stored yet.
type ThresholdReader interface {
	Load(ctx context.Context, chartID string) (*domain.ThresholdSet, error)
}

// Server exposes health, readiness, metrics and the cached thresholds.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /thresholds routes. /thresholds serves the chart named by the chart_id
// query parameter, or defaultChartID when it is absent.
func NewServer(addr string, ready sharedobs.ReadinessChecker, thresholds ThresholdReader, defaultChartID string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /thresholds", s.handleThresholds(thresholds, defaultChartID))

	return s
}

func (s *Server) handleThresholds(store ThresholdReader, defaultChartID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chartID := r.URL.Query().Get("chart_id")
		if chartID == "" {
			chartID = defaultChartID
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		set, err := store.Load(ctx, chartID)
		if err != nil {
			s.logger.Error("load thresholds", "chart_id", chartID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "threshold cache unavailable"})
			return
		}
		if set == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no thresholds cached"})
			return
		}
		writeJSON(w, http.StatusOK, set)
	}
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
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
