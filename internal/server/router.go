package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/telemetry-relay/internal/handlers"
	"github.com/telhawk-systems/telemetry-relay/internal/middleware"
)

// NewRouter constructs a ServeMux with relay routes registered.
func NewRouter(h *handlers.RelayHandler) http.Handler {
	mux := http.NewServeMux()

	// Ingest endpoint
	mux.HandleFunc("/", h.HandleIngest)

	// Liveness probe
	mux.HandleFunc("/health", h.Health)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
