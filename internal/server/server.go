package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nholik/status-sentry/internal/healthcheck"
	"github.com/nholik/status-sentry/internal/metrics"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Start launches the health and metrics HTTP servers as configured.
// A port of 0 disables the corresponding surface; when both surfaces
// share a port they share one server.
func Start(ctx context.Context, logger zerolog.Logger, pollInterval time.Duration, tracker *healthcheck.Tracker, metricsCollector *metrics.Metrics, healthPort, metricsPort int) {
	muxes := map[int]*http.ServeMux{}

	if healthPort > 0 {
		mux := muxFor(muxes, healthPort)
		mux.HandleFunc("/healthz", healthcheck.HealthHandler(tracker, pollInterval))
		mux.HandleFunc("/readyz", healthcheck.ReadyHandler(tracker))
	}
	if metricsPort > 0 && metricsCollector != nil {
		mux := muxFor(muxes, metricsPort)
		mux.Handle("/metrics", metricsCollector.Handler())
	}

	for port, mux := range muxes {
		serve(ctx, logger, mux, port)
	}
}

func muxFor(muxes map[int]*http.ServeMux, port int) *http.ServeMux {
	if mux, ok := muxes[port]; ok {
		return mux
	}
	mux := http.NewServeMux()
	muxes[port] = mux
	return mux
}

func serve(ctx context.Context, logger zerolog.Logger, handler http.Handler, port int) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Int("port", port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Int("port", port).Msg("http server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Int("port", port).Msg("http server shutdown failed")
		}
	}()
}
