// Package metrics exposes Prometheus instrumentation for the Openshelf server.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// SessionsActive tracks currently connected client sessions.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "openshelf_sessions_active",
		Help: "Number of currently connected client sessions.",
	})

	// SessionsTotal counts accepted client sessions.
	SessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "openshelf_sessions_total",
		Help: "Total number of accepted client sessions.",
	})

	// CatalogOps counts catalogue operations by kind and outcome.
	CatalogOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openshelf_catalog_operations_total",
		Help: "Total catalogue operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// SnapshotSaves counts snapshot save attempts by outcome.
	SnapshotSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "openshelf_snapshot_saves_total",
		Help: "Total snapshot save attempts by outcome.",
	}, []string{"outcome"})
)

// ObserveOp records one catalogue operation outcome.
func ObserveOp(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	CatalogOps.WithLabelValues(operation, outcome).Inc()
}

// Server serves the metrics endpoint on its own port.
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer creates the metrics HTTP server.
func NewServer(port int, path string, logger zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Handle(path, promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	return &Server{
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start serves metrics until Shutdown is called.
func (s *Server) Start() {
	s.logger.Info().Str("addr", s.srv.Addr).Msg("metrics server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error().Err(err).Msg("metrics server failed")
	}
}

// Shutdown stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
