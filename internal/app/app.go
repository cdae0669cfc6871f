// Package app wires fetchers, the clusterer and the publisher into one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/news"
)

// Fetcher returns raw articles for a category.
type Fetcher interface {
	Fetch(ctx context.Context, category string) ([]news.RawArticle, error)
}

// Clusterer merges near-duplicate articles.
type Clusterer interface {
	Cluster(ctx context.Context, articles []news.RawArticle) ([]news.MergedArticle, error)
}

// Publisher delivers a formatted digest.
type Publisher interface {
	SendMessage(ctx context.Context, text string) error
}

var ErrNoPublisher = errors.New("no publisher configured")

type Pipeline struct {
	fetchers       []Fetcher
	clusterer      Clusterer
	publisher      Publisher
	metrics        *metrics.Metrics
	maxDigestItems int
}

type Option func(*Pipeline)

func WithPublisher(p Publisher) Option {
	return func(pl *Pipeline) { pl.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(pl *Pipeline) { pl.metrics = m }
}

func WithMaxDigestItems(n int) Option {
	return func(pl *Pipeline) { pl.maxDigestItems = n }
}

func NewPipeline(clusterer Clusterer, fetchers []Fetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetchers:       fetchers,
		clusterer:      clusterer,
		metrics:        metrics.New(),
		maxDigestItems: 5,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run fetches and clusters the articles of one category. Failures are
// reported in the envelope rather than returned.
func (p *Pipeline) Run(ctx context.Context, category string) news.Result {
	start := time.Now()
	defer func() { p.metrics.RecordProcessingTime(time.Since(start)) }()

	articles := p.fetch(ctx, category)
	if len(articles) == 0 {
		msg := fmt.Sprintf("No articles found for category: %s. Check API key or rate limits.", category)
		p.metrics.SetError(msg)
		return news.Result{NewsArticles: []news.MergedArticle{}, Error: msg}
	}

	merged, err := p.clusterer.Cluster(ctx, articles)
	if err != nil {
		logger.Error("clustering failed", "category", category, "err", err)
		msg := fmt.Sprintf("Failed to fetch news: %v", err)
		p.metrics.SetError(msg)
		return news.Result{NewsArticles: []news.MergedArticle{}, Error: msg}
	}

	p.metrics.SetLastRun()
	return news.Result{NewsArticles: merged}
}

func (p *Pipeline) fetch(ctx context.Context, category string) []news.RawArticle {
	var all []news.RawArticle
	for _, f := range p.fetchers {
		articles, err := f.Fetch(ctx, category)
		if err != nil {
			logger.Warn("fetcher failed", "category", category, "err", err)
			continue
		}
		all = append(all, articles...)
	}

	valid := news.FilterValid(all)
	if dropped := len(all) - len(valid); dropped > 0 {
		logger.Debug("dropped malformed articles", "count", dropped)
	}
	p.metrics.AddArticlesFetched(len(valid))
	logger.Info("collected articles", "category", category, "articles", len(valid))
	return valid
}

// Publish sends the digest of a successful result. Empty or failed results
// are not published.
func (p *Pipeline) Publish(ctx context.Context, res news.Result) error {
	if p.publisher == nil {
		return ErrNoPublisher
	}
	if res.Error != "" || len(res.NewsArticles) == 0 {
		logger.Info("nothing to publish", "error", res.Error)
		return nil
	}

	msg := FitDigest(res.NewsArticles, p.maxDigestItems, MaxDigestLength)
	logger.Debug("sending digest", "length", utf8.RuneCountInString(msg))
	if err := p.publisher.SendMessage(ctx, msg); err != nil {
		p.metrics.SetError(err.Error())
		return fmt.Errorf("publish digest: %w", err)
	}
	p.metrics.IncrementDigestsPublished()
	return nil
}
