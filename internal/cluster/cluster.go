// Package cluster merges near-duplicate articles into representative groups.
//
// Grouping is seed-greedy: each unvisited article seeds a cluster and absorbs
// every later unvisited article whose similarity to the seed exceeds the
// threshold. Membership is judged against the seed only, so the result is not
// a transitive closure and depends on input order.
package cluster

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/deusflow/headlines/internal/embed"
	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/news"
)

const DefaultThreshold = 0.8

// LogoResolver returns a logo URL for a normalised domain and never fails.
type LogoResolver interface {
	Resolve(ctx context.Context, domain string) string
}

type Clusterer struct {
	encoder   embed.Encoder
	logos     LogoResolver
	threshold float64
	metrics   *metrics.Metrics
}

type Option func(*Clusterer)

// WithThreshold sets the similarity a member must strictly exceed.
func WithThreshold(t float64) Option {
	return func(c *Clusterer) { c.threshold = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Clusterer) { c.metrics = m }
}

func New(encoder embed.Encoder, logos LogoResolver, opts ...Option) *Clusterer {
	c := &Clusterer{encoder: encoder, logos: logos, threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cluster groups articles and returns one MergedArticle per group, ordered by
// the group's seed position in the input. An encoder failure fails the whole
// call; logo resolution never does.
func (c *Clusterer) Cluster(ctx context.Context, articles []news.RawArticle) ([]news.MergedArticle, error) {
	if len(articles) == 0 {
		return []news.MergedArticle{}, nil
	}
	start := time.Now()

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = a.Text()
	}

	vectors, err := c.encoder.EncodeBatch(ctx, texts)
	if err != nil {
		if c.metrics != nil {
			c.metrics.IncrementEncoderFailures()
		}
		return nil, fmt.Errorf("encode articles: %w", err)
	}
	if len(vectors) != len(articles) {
		return nil, fmt.Errorf("encode articles: got %d vectors for %d articles", len(vectors), len(articles))
	}

	groups := Group(SimilarityMatrix(vectors), c.threshold)

	merged := make([]news.MergedArticle, 0, len(groups))
	for _, g := range groups {
		merged = append(merged, c.merge(ctx, articles, g))
	}

	if c.metrics != nil {
		c.metrics.RecordClustering(len(articles), len(merged))
	}
	logger.Info("clustered articles", "articles", len(articles), "clusters", len(merged), "took", time.Since(start))
	return merged, nil
}

// SimilarityMatrix computes pairwise cosine similarity. The diagonal is 1.
func SimilarityMatrix(vectors [][]float32) [][]float64 {
	n := len(vectors)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
		sim[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := CosineSimilarity(vectors[i], vectors[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}

// CosineSimilarity computes the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Group runs seed-greedy clustering over a similarity matrix and returns the
// member indices of each cluster, seed first, in construction order.
func Group(sim [][]float64, threshold float64) [][]int {
	n := len(sim)
	visited := make([]bool, n)
	var groups [][]int

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		group := []int{i}
		visited[i] = true
		for j := i + 1; j < n; j++ {
			if !visited[j] && sim[i][j] > threshold {
				group = append(group, j)
				visited[j] = true
			}
		}
		groups = append(groups, group)
	}
	return groups
}

func (c *Clusterer) merge(ctx context.Context, articles []news.RawArticle, members []int) news.MergedArticle {
	first := articles[members[0]]
	out := news.MergedArticle{
		Title:       first.Title,
		Description: first.Description,
		Sources:     make([]news.SourceRef, 0, len(members)),
	}

	if len(members) > 1 {
		titles := make([]string, len(members))
		descriptions := make([]string, len(members))
		for k, idx := range members {
			titles[k] = articles[idx].Title
			descriptions[k] = articles[idx].Description
		}
		out.Title = longest(titles)
		out.Description = longest(descriptions)
	}

	for _, idx := range members {
		a := articles[idx]
		out.Sources = append(out.Sources, news.SourceRef{
			Name: a.Source,
			URL:  a.URL,
			Logo: c.logos.Resolve(ctx, news.DomainOf(a.URL)),
		})
	}
	return out
}

// longest returns the string with the most characters; the first wins ties.
func longest(values []string) string {
	best, bestLen := "", -1
	for _, v := range values {
		if l := utf8.RuneCountInString(v); l > bestLen {
			best, bestLen = v, l
		}
	}
	return best
}
