// Package rss fetches supplementary headlines from RSS and Atom feeds.
package rss

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/news"
)

// FeedsConfig is YAML config structure
// feeds:
//   - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadSources reads the feed list from a YAML file.
func LoadSources(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	feeds := make([]string, 0, len(cfg.Feeds))
	for _, u := range cfg.Feeds {
		if u = strings.TrimSpace(u); u != "" {
			feeds = append(feeds, u)
		}
	}
	return feeds, nil
}

type Fetcher struct {
	urls    []string
	parser  *gofeed.Parser
	timeout time.Duration
}

func NewFetcher(urls []string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{urls: urls, parser: gofeed.NewParser(), timeout: timeout}
}

// Fetch ignores category: feeds are curated per deployment.
func (f *Fetcher) Fetch(ctx context.Context, _ string) ([]news.RawArticle, error) {
	return f.FetchAll(ctx)
}

// FetchAll downloads every feed in order. A broken feed is logged and skipped.
func (f *Fetcher) FetchAll(ctx context.Context) ([]news.RawArticle, error) {
	var all []news.RawArticle
	ok := 0

	for _, u := range f.urls {
		items, err := f.fetchOne(ctx, u)
		if err != nil {
			logger.Warn("error parsing RSS", "url", u, "err", err)
			continue
		}
		ok++
		logger.Debug("loaded feed", "url", u, "items", len(items))
		all = append(all, items...)
	}

	logger.Info("processed RSS feeds", "ok", ok, "total", len(f.urls), "articles", len(all))
	return all, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) ([]news.RawArticle, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}
	return fromFeed(feed), nil
}

func fromFeed(feed *gofeed.Feed) []news.RawArticle {
	source := strings.TrimSpace(feed.Title)
	out := make([]news.RawArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		out = append(out, news.RawArticle{
			Title:       strings.TrimSpace(item.Title),
			Source:      source,
			Description: StripHTML(desc),
			URL:         strings.TrimSpace(item.Link),
		})
	}
	return news.FilterValid(out)
}

// StripHTML returns the visible text of an HTML fragment with whitespace collapsed.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
