package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deusflow/headlines/internal/app"
	"github.com/deusflow/headlines/internal/cache"
	"github.com/deusflow/headlines/internal/cluster"
	"github.com/deusflow/headlines/internal/config"
	"github.com/deusflow/headlines/internal/embed"
	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/logo"
	"github.com/deusflow/headlines/internal/metrics"
	"github.com/deusflow/headlines/internal/newsapi"
	"github.com/deusflow/headlines/internal/ratelimit"
	"github.com/deusflow/headlines/internal/retry"
	"github.com/deusflow/headlines/internal/rss"
	"github.com/deusflow/headlines/internal/telegram"
)

var globalConfig *config.Config

// services are built once per process and shared by every command.
type services struct {
	logos     *cache.Store
	budget    *ratelimit.Budget
	clusterer *cluster.Clusterer
	pipeline  *app.Pipeline
}

var globalServices *services

var rootCmd = &cobra.Command{
	Use:   "headlines",
	Short: "Fetch news headlines and merge duplicate stories",
	Long: `Fetches headlines for a category from NewsAPI and optional RSS feeds,
groups articles that report the same story by embedding similarity, and
returns one merged record per story with every contributing source.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalConfig = cfg
		logger.Init(cfg.Debug)

		svc, err := buildServices(cfg)
		if err != nil {
			return err
		}
		globalServices = svc

		if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
			go startMonitoringServer(svc)
		}
		return nil
	},
}

func buildServices(cfg *config.Config) (*services, error) {
	m := metrics.Global
	logos := cache.New()

	var budget *ratelimit.Budget
	if cfg.MaxEnrichRequests > 0 {
		budget = ratelimit.NewBudget(map[string]int{logo.EnrichService: cfg.MaxEnrichRequests})
	}

	resolver := logo.NewResolver(logos, logo.Options{
		EnrichAPIKey:  cfg.CompanyEnrichAPIKey,
		EnrichBaseURL: cfg.CompanyEnrichBaseURL,
		LogoBaseURL:   cfg.LogoBaseURL,
		DefaultURL:    cfg.DefaultLogoURL,
		EnrichTimeout: cfg.EnrichTimeout,
		CheckTimeout:  cfg.LogoCheckTimeout,
		Budget:        budget,
		Metrics:       m,
	})

	encoder := embed.NewLazy(embed.NewLoader(cfg))
	clusterer := cluster.New(encoder, resolver,
		cluster.WithThreshold(cfg.ClusterCutoff),
		cluster.WithMetrics(m),
	)

	fetchers := []app.Fetcher{
		newsapi.NewClient(newsapi.Options{
			APIKey:      cfg.NewsAPIKey,
			BaseURL:     cfg.NewsAPIBaseURL,
			Country:     cfg.NewsCountry,
			QuerySuffix: cfg.NewsQuerySuffix,
			Retry:       retry.Policy{Attempts: cfg.FetchAttempts, Delay: cfg.RetryDelay},
		}),
	}
	if cfg.FeedsConfigPath != "" {
		feeds, err := rss.LoadSources(cfg.FeedsConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load RSS sources: %w", err)
		}
		fetchers = append(fetchers, rss.NewFetcher(feeds, 15*time.Second))
	}

	opts := []app.Option{app.WithMetrics(m), app.WithMaxDigestItems(cfg.MaxDigestItems)}
	if cfg.TelegramEnabled() {
		tg := telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID, retry.Policy{
			Attempts: cfg.RetryAttempts,
			Delay:    cfg.RetryDelay,
			Backoff:  true,
		})
		opts = append(opts, app.WithPublisher(tg))
	}

	return &services{
		logos:     logos,
		budget:    budget,
		clusterer: clusterer,
		pipeline:  app.NewPipeline(clusterer, fetchers, opts...),
	}, nil
}
