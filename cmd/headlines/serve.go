package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline on a schedule",
	Long: `Run the pipeline on the SCHEDULE cron spec (TIMEZONE) until interrupted.
Digests are published to Telegram when TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are set.
The monitoring endpoints are always served in this mode.`,
	RunE: runServe,
}

var (
	serveCategory string
	serveNow      bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveCategory, "category", "", "News category (default from NEWS_CATEGORY)")
	serveCmd.Flags().BoolVar(&serveNow, "now", false, "Run once immediately before waiting for the schedule")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	category := serveCategory
	if category == "" {
		category = globalConfig.DefaultCategory
	}

	job := func() { runScheduled(ctx, category) }
	s, err := scheduler.New(globalConfig.Schedule, globalConfig.Timezone, job)
	if err != nil {
		return err
	}

	// Already running when ENABLE_HTTP_MONITORING is set.
	if os.Getenv("ENABLE_HTTP_MONITORING") != "true" {
		go startMonitoringServer(globalServices)
	}

	if serveNow {
		job()
	}

	s.Start()
	logger.Info("scheduler started", "schedule", globalConfig.Schedule, "timezone", globalConfig.Timezone,
		"next", s.NextAfter(time.Now()).Format(time.RFC3339))

	<-ctx.Done()
	logger.Info("shutting down")
	s.Stop()
	return nil
}

func runScheduled(ctx context.Context, category string) {
	if ctx.Err() != nil {
		return
	}
	p := globalServices.pipeline
	res := p.Run(ctx, category)
	if res.Error != "" {
		logger.Warn("scheduled run failed", "category", category, "error", res.Error)
		return
	}
	logger.Info("scheduled run finished", "category", category, "stories", len(res.NewsArticles))

	if !globalConfig.TelegramEnabled() {
		return
	}
	if err := p.Publish(ctx, res); err != nil {
		logger.Error("failed to publish digest", "err", err)
	}
}
