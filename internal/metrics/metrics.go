package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ArticlesFetched   int64
	ArticlesClustered int64
	ClustersProduced  int64
	DuplicatesMerged  int64
	EncoderFailures   int64
	LogoCacheHits     int64
	LogoCacheMisses   int64
	LogoFallbacks     int64
	DigestsPublished  int64

	// Timings
	LastProcessingTime    time.Duration
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration
	ProcessingCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = New()

func New() *Metrics {
	return &Metrics{IsHealthy: true}
}

func (m *Metrics) AddArticlesFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesFetched += int64(n)
}

// RecordClustering counts one clustering pass over articles producing clusters.
func (m *Metrics) RecordClustering(articles, clusters int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesClustered += int64(articles)
	m.ClustersProduced += int64(clusters)
	m.DuplicatesMerged += int64(articles - clusters)
}

func (m *Metrics) IncrementEncoderFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EncoderFailures++
}

func (m *Metrics) IncrementLogoCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LogoCacheHits++
}

func (m *Metrics) IncrementLogoCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LogoCacheMisses++
}

func (m *Metrics) IncrementLogoFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LogoFallbacks++
}

func (m *Metrics) IncrementDigestsPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DigestsPublished++
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastProcessingTime = duration
	m.TotalProcessingTime += duration
	m.ProcessingCount++

	if m.ProcessingCount > 0 {
		m.AverageProcessingTime = m.TotalProcessingTime / time.Duration(m.ProcessingCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"articles_fetched":           m.ArticlesFetched,
		"articles_clustered":         m.ArticlesClustered,
		"clusters_produced":          m.ClustersProduced,
		"duplicates_merged":          m.DuplicatesMerged,
		"encoder_failures":           m.EncoderFailures,
		"logo_cache_hits":            m.LogoCacheHits,
		"logo_cache_misses":          m.LogoCacheMisses,
		"logo_fallbacks":             m.LogoFallbacks,
		"digests_published":          m.DigestsPublished,
		"last_processing_time_ms":    m.LastProcessingTime.Milliseconds(),
		"average_processing_time_ms": m.AverageProcessingTime.Milliseconds(),
		"last_run_time":              m.LastRunTime.Format(time.RFC3339),
		"last_error_time":            m.LastErrorTime.Format(time.RFC3339),
		"last_error":                 m.LastError,
		"is_healthy":                 m.IsHealthy,
	}
}
