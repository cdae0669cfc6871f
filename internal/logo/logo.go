// Package logo resolves a display logo for a news source's domain.
package logo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deusflow/headlines/internal/cache"
	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/ratelimit"
)

const (
	DefaultLogoURL = "https://placehold.co/24x24"
	EnrichService  = "enrich"
)

type Options struct {
	EnrichAPIKey  string
	EnrichBaseURL string // e.g. https://api.companyenrich.com
	LogoBaseURL   string // e.g. https://logo.clearbit.com
	DefaultURL    string
	EnrichTimeout time.Duration
	CheckTimeout  time.Duration
	Budget        *ratelimit.Budget // optional cap on enrichment calls
	Metrics       *metrics.Metrics  // optional
	HTTPClient    *http.Client      // optional; per-call timeouts still apply
}

// strategy returns a logo for domain, or false to hand over to the next one.
type strategy func(ctx context.Context, domain string) (string, bool)

// Resolver maps domains to logo URLs. It never fails: when every strategy
// gives up it returns the default placeholder. Every outcome is cached for
// the lifetime of the cache, including fallbacks.
type Resolver struct {
	opts       Options
	cache      *cache.Store
	client     *http.Client
	strategies []strategy
}

func NewResolver(store *cache.Store, opts Options) *Resolver {
	if opts.DefaultURL == "" {
		opts.DefaultURL = DefaultLogoURL
	}
	if opts.EnrichTimeout <= 0 {
		opts.EnrichTimeout = 10 * time.Second
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 5 * time.Second
	}
	opts.EnrichBaseURL = strings.TrimRight(opts.EnrichBaseURL, "/")
	opts.LogoBaseURL = strings.TrimRight(opts.LogoBaseURL, "/")

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	r := &Resolver{opts: opts, cache: store, client: client}
	r.strategies = []strategy{r.fromEnrichment, r.fromConventional}
	return r
}

// Resolve returns the logo URL for an already-normalised domain.
func (r *Resolver) Resolve(ctx context.Context, domain string) string {
	domain = cache.Key(domain)
	if domain == "" {
		return r.opts.DefaultURL
	}

	if logo, ok := r.cache.Get(domain); ok {
		r.count(func(m *metrics.Metrics) { m.IncrementLogoCacheHits() })
		return logo
	}
	r.count(func(m *metrics.Metrics) { m.IncrementLogoCacheMisses() })

	logo := r.opts.DefaultURL
	resolved := false
	for _, try := range r.strategies {
		if v, ok := try(ctx, domain); ok {
			logo = v
			resolved = true
			break
		}
	}
	if !resolved {
		logger.Debug("using default logo", "domain", domain)
		r.count(func(m *metrics.Metrics) { m.IncrementLogoFallbacks() })
	}

	r.cache.Set(domain, logo)
	return logo
}

func (r *Resolver) count(fn func(m *metrics.Metrics)) {
	if r.opts.Metrics != nil {
		fn(r.opts.Metrics)
	}
}

// enrichResponse covers the image fields the enrichment API has been seen to use.
type enrichResponse struct {
	Logo    string   `json:"logo"`
	LogoURL string   `json:"logo_url"`
	Image   string   `json:"image"`
	Images  []string `json:"images"`
}

func (e enrichResponse) firstImage() string {
	for _, v := range []string{e.Logo, e.LogoURL, e.Image} {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	if len(e.Images) > 0 && strings.TrimSpace(e.Images[0]) != "" {
		return e.Images[0]
	}
	return ""
}

func (r *Resolver) fromEnrichment(ctx context.Context, domain string) (string, bool) {
	if r.opts.EnrichAPIKey == "" || r.opts.EnrichBaseURL == "" {
		logger.Debug("enrichment API key not set, skipping", "domain", domain)
		return "", false
	}
	if r.opts.Budget != nil {
		if err := r.opts.Budget.Use(EnrichService); err != nil {
			return "", false
		}
	}

	logo, err := r.enrich(ctx, domain)
	if err != nil {
		logger.Debug("enrichment lookup failed", "domain", domain, "err", err)
		return "", false
	}
	return logo, true
}

func (r *Resolver) enrich(ctx context.Context, domain string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.EnrichTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/companies/enrich?domain=%s", r.opts.EnrichBaseURL, url.QueryEscape(domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.opts.EnrichAPIKey)
	req.Header.Set("accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("enrichment API status %d", resp.StatusCode)
	}

	var body enrichResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	logo := body.firstImage()
	if logo == "" {
		return "", fmt.Errorf("no logo field in response")
	}
	return logo, nil
}

// fromConventional uses the logo-by-domain URL pattern if it answers a HEAD with 200.
func (r *Resolver) fromConventional(ctx context.Context, domain string) (string, bool) {
	if r.opts.LogoBaseURL == "" {
		return "", false
	}
	candidate := r.opts.LogoBaseURL + "/" + domain

	ctx, cancel := context.WithTimeout(ctx, r.opts.CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, candidate, nil)
	if err != nil {
		return "", false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		logger.Debug("logo existence check failed", "url", candidate, "err", err)
		return "", false
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debug("logo not available", "url", candidate, "status", resp.StatusCode)
		return "", false
	}
	return candidate, true
}
