package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/logo"
	"github.com/deusflow/headlines/internal/metrics"
)

func startMonitoringServer(svc *services) {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, monitoringMux(metrics.Global, svc)); err != nil {
		logger.Error("monitoring server error", "err", err)
	}
}

func monitoringMux(m *metrics.Metrics, svc *services) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(m))
	mux.HandleFunc("/metrics", metricsHandler(m, svc))
	if svc != nil {
		mux.HandleFunc("/logos", logosHandler(svc))
	}
	return mux
}

func healthHandler(m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := m.GetStats()

		status := "ok"
		code := http.StatusOK
		if healthy, _ := stats["is_healthy"].(bool); !healthy {
			status = "error"
			code = http.StatusServiceUnavailable
		}

		response := map[string]interface{}{
			"status":     status,
			"last_run":   stats["last_run_time"],
			"last_error": stats["last_error"],
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(response)
	}
}

func metricsHandler(m *metrics.Metrics, svc *services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := m.GetStats()
		if svc != nil {
			stats["logo_cache_size"] = svc.logos.Len()
			if svc.budget != nil {
				stats["budget"] = svc.budget.GetStats()
				stats["enrich_available"] = svc.budget.Allow(logo.EnrichService)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats)
	}
}

// logosHandler dumps the resolved domain to logo mapping.
func logosHandler(svc *services) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(svc.logos.Snapshot())
	}
}
