// Package metrics provides the Prometheus exposition endpoint for
// device-lookup. Metrics themselves are registered via promauto on the
// default registry in their respective packages (client, cache, batch, report).
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handler returns the /metrics exposition handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server exposes /metrics while a run is in progress.
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer creates a metrics server listening on addr (e.g. ":9100").
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start serves in the background. Listen errors are logged, not returned:
// a missing metrics endpoint never fails a run.
func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("Metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Str("addr", s.srv.Addr).Msg("Metrics server failed")
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Metrics Documentation
//
// Lookup Client Metrics (pkg/client):
//   - lookup_requests_total{status} (Counter): Requests by HTTP status or "network_error"
//   - lookup_request_duration_seconds (Histogram): Request duration, pacing excluded
//   - lookup_errors_total{class} (Counter): Failures by class (client, server, unexpected, network, decode)
//   - lookup_malformed_payloads_total (Counter): 200 responses without an attribute list
//
// Pacing Metrics (pkg/ratelimit):
//   - lookup_pacing_delay_seconds (Histogram): Randomized pre-request delays
//
// Cache Metrics (pkg/cache):
//   - lookup_cache_hits_total (Counter): Responses served from Redis
//   - lookup_cache_misses_total (Counter): Cache misses
//   - lookup_cache_errors_total{operation} (Counter): Cache operation errors
//
// Batch Metrics (pkg/batch):
//   - lookup_shards_active (Gauge): Shards currently being processed
//   - lookup_outcomes_total{result} (Counter): Outcomes by result (success, failure)
//
// Report Metrics (pkg/report):
//   - report_rows_written_total (Counter): Data rows written to the output
//   - report_columns (Gauge): Columns in the last built header
//
// Example Prometheus Queries:
//
//   # Failure ratio
//   sum(rate(lookup_outcomes_total{result="failure"}[5m])) / sum(rate(lookup_outcomes_total[5m]))
//
//   # P95 lookup latency
//   histogram_quantile(0.95, rate(lookup_request_duration_seconds_bucket[5m]))
