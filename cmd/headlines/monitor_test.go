package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/headlines/internal/cache"
	"github.com/deusflow/headlines/internal/logo"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/ratelimit"
)

func TestHealthHandler(t *testing.T) {
	m := metrics.New()
	mux := monitoringMux(m, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])

	m.SetError("encoder down")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "encoder down", body["last_error"])
}

func TestMetricsAndLogosHandlers(t *testing.T) {
	m := metrics.New()
	m.RecordClustering(5, 3)

	svc := &services{
		logos:  cache.New(),
		budget: ratelimit.NewBudget(map[string]int{logo.EnrichService: 1}),
	}
	svc.logos.Set("bbc.co.uk", "https://cdn/bbc.png")
	mux := monitoringMux(m, svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, float64(2), stats["duplicates_merged"])
	assert.Equal(t, float64(1), stats["logo_cache_size"])
	assert.Contains(t, stats, "budget")
	assert.Equal(t, true, stats["enrich_available"])

	require.NoError(t, svc.budget.Use(logo.EnrichService))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, false, stats["enrich_available"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logos", nil))
	var logos map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logos))
	assert.Equal(t, map[string]string{"bbc.co.uk": "https://cdn/bbc.png"}, logos)
}
