// Package newsapi fetches headlines from newsapi.org.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/news"
	"github.com/deusflow/headlines/internal/retry"
)

var ErrNoAPIKey = errors.New("NEWS_API_KEY not set in environment variables")

// excludedSource is an aggregator whose items duplicate other outlets.
const excludedSource = "Google News"

type Client struct {
	apiKey      string
	baseURL     string
	country     string
	querySuffix string
	http        *http.Client
	retry       retry.Policy
}

type Options struct {
	APIKey      string
	BaseURL     string
	Country     string
	QuerySuffix string
	Timeout     time.Duration
	Retry       retry.Policy
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:      opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		country:     opts.Country,
		querySuffix: opts.QuerySuffix,
		http:        &http.Client{Timeout: timeout},
		retry:       opts.Retry,
	}
}

type query struct {
	endpoint string
	params   url.Values
}

type apiSource struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

type apiArticle struct {
	Source      apiSource `json:"source"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
}

type apiResponse struct {
	Status   string       `json:"status"`
	Message  string       `json:"message"`
	Articles []apiArticle `json:"articles"`
}

// Fetch runs the top-headlines and everything queries for category and
// returns their articles in query order. Failed queries are logged and skipped.
func (c *Client) Fetch(ctx context.Context, category string) ([]news.RawArticle, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if category == "" {
		category = "general"
	}

	everything := strings.TrimSpace(category + " " + c.querySuffix)
	queries := []query{
		{endpoint: "top-headlines", params: url.Values{"category": {category}, "country": {c.country}}},
		{endpoint: "everything", params: url.Values{"q": {everything}, "sortBy": {"publishedAt"}}},
	}

	var all []news.RawArticle
	for _, q := range queries {
		var articles []news.RawArticle
		err := retry.Do(ctx, c.retry, "newsapi "+q.endpoint, func(ctx context.Context) error {
			var err error
			articles, err = c.run(ctx, q)
			return err
		})
		if err != nil {
			logger.Warn("news query failed", "endpoint", q.endpoint, "category", category, "err", err)
			continue
		}
		logger.Info("fetched news", "endpoint", q.endpoint, "category", category, "articles", len(articles))
		all = append(all, articles...)
	}
	return all, nil
}

func (c *Client) run(ctx context.Context, q query) ([]news.RawArticle, error) {
	params := url.Values{}
	for k, v := range q.params {
		params[k] = v
	}
	params.Set("apiKey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+q.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d - %s", resp.StatusCode, truncate(string(body), 200))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, retry.Permanent(fmt.Errorf("decode: %w", err))
	}
	if data.Status != "ok" {
		msg := data.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, retry.Permanent(fmt.Errorf("NewsAPI error: %s", msg))
	}

	return convert(data.Articles), nil
}

// convert keeps articles with a description and not syndicated through Google
// News. The source is the NewsAPI identifier when present, else its display name.
func convert(in []apiArticle) []news.RawArticle {
	out := make([]news.RawArticle, 0, len(in))
	for _, a := range in {
		if a.Description == nil || *a.Description == "" {
			continue
		}
		if strings.Contains(a.Source.Name, excludedSource) {
			continue
		}
		source := a.Source.Name
		if a.Source.ID != nil && *a.Source.ID != "" {
			source = *a.Source.ID
		}
		out = append(out, news.RawArticle{
			Title:       a.Title,
			Source:      source,
			Description: *a.Description,
			URL:         a.URL,
		})
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
