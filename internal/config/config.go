// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// NewsAPI settings
	NewsAPIKey      string
	NewsAPIBaseURL  string
	NewsCountry     string // country for top-headlines
	NewsQuerySuffix string // appended to the category for the "everything" query
	DefaultCategory string
	FetchAttempts   int

	// RSS settings
	FeedsConfigPath string

	// Embedding settings
	EmbedProvider string // "gemini" or "openai"
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	ModelCacheDir string
	EncodeTimeout time.Duration
	ClusterCutoff float64

	// Logo settings
	CompanyEnrichAPIKey  string
	CompanyEnrichBaseURL string
	LogoBaseURL          string
	DefaultLogoURL       string
	EnrichTimeout        time.Duration
	LogoCheckTimeout     time.Duration
	MaxEnrichRequests    int // per day, 0 = unlimited

	// Telegram settings
	TelegramToken  string
	TelegramChatID string
	MaxDigestItems int

	// Schedule settings
	Schedule string // five-field cron spec for `serve`
	Timezone string

	// App settings
	Debug         bool
	RetryAttempts int
	RetryDelay    time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		NewsAPIBaseURL:       "https://newsapi.org/v2",
		NewsCountry:          "in",
		NewsQuerySuffix:      "india",
		DefaultCategory:      "general",
		FetchAttempts:        1,
		EmbedProvider:        "gemini",
		GeminiModel:          "text-embedding-004",
		OpenAIBaseURL:        "https://api.openai.com/v1",
		OpenAIModel:          "text-embedding-3-small",
		ModelCacheDir:        "model_cache",
		EncodeTimeout:        60 * time.Second,
		ClusterCutoff:        0.8,
		CompanyEnrichBaseURL: "https://api.companyenrich.com",
		LogoBaseURL:          "https://logo.clearbit.com",
		DefaultLogoURL:       "https://placehold.co/24x24",
		EnrichTimeout:        10 * time.Second,
		LogoCheckTimeout:     5 * time.Second,
		MaxDigestItems:       5,
		Schedule:             "0 8 * * *",
		Timezone:             "UTC",
		RetryAttempts:        3,
		RetryDelay:           2 * time.Second,
	}

	// Load from environment
	cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	cfg.GeminiAPIKey = firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.CompanyEnrichAPIKey = os.Getenv("COMPANY_ENRICH_API_KEY")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.FeedsConfigPath = os.Getenv("FEEDS_CONFIG_PATH")

	cfg.NewsAPIBaseURL = getEnvOrDefault("NEWS_API_BASE_URL", cfg.NewsAPIBaseURL)
	cfg.NewsCountry = getEnvOrDefault("NEWS_COUNTRY", cfg.NewsCountry)
	cfg.NewsQuerySuffix = getEnvOrDefault("NEWS_QUERY_SUFFIX", cfg.NewsQuerySuffix)
	cfg.DefaultCategory = getEnvOrDefault("NEWS_CATEGORY", cfg.DefaultCategory)
	cfg.FetchAttempts = getEnvIntOrDefault("FETCH_ATTEMPTS", cfg.FetchAttempts)

	cfg.EmbedProvider = getEnvOrDefault("EMBED_PROVIDER", cfg.EmbedProvider)
	cfg.GeminiModel = getEnvOrDefault("GEMINI_EMBED_MODEL", cfg.GeminiModel)
	cfg.OpenAIBaseURL = getEnvOrDefault("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_EMBED_MODEL", cfg.OpenAIModel)
	cfg.ModelCacheDir = getEnvOrDefault("MODEL_CACHE_DIR", cfg.ModelCacheDir)
	cfg.EncodeTimeout = getEnvDurationOrDefault("ENCODE_TIMEOUT", cfg.EncodeTimeout)

	if v := os.Getenv("CLUSTER_THRESHOLD"); v != "" {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid CLUSTER_THRESHOLD %q: %w", v, err)
		}
		cfg.ClusterCutoff = val
	}

	cfg.CompanyEnrichBaseURL = getEnvOrDefault("COMPANY_ENRICH_BASE_URL", cfg.CompanyEnrichBaseURL)
	cfg.LogoBaseURL = getEnvOrDefault("LOGO_BASE_URL", cfg.LogoBaseURL)
	cfg.DefaultLogoURL = getEnvOrDefault("DEFAULT_LOGO_URL", cfg.DefaultLogoURL)
	cfg.EnrichTimeout = getEnvDurationOrDefault("ENRICH_TIMEOUT", cfg.EnrichTimeout)
	cfg.LogoCheckTimeout = getEnvDurationOrDefault("LOGO_CHECK_TIMEOUT", cfg.LogoCheckTimeout)
	cfg.MaxEnrichRequests = getEnvIntOrDefault("MAX_ENRICH_REQUESTS", cfg.MaxEnrichRequests)

	if limit := os.Getenv("MAX_DIGEST_ITEMS"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil && val > 0 {
			cfg.MaxDigestItems = val
		}
	}

	cfg.Schedule = getEnvOrDefault("SCHEDULE", cfg.Schedule)
	cfg.Timezone = getEnvOrDefault("TIMEZONE", cfg.Timezone)

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.RetryDelay = getEnvDurationOrDefault("RETRY_DELAY", cfg.RetryDelay)

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("750ms") or plain seconds ("5").
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Validate checks settings that would make every request fail.
// Missing NewsAPI or enrichment keys are not fatal: the fetcher reports
// them per request and the logo resolver skips its enrichment tier.
func (c *Config) Validate() error {
	switch c.EmbedProvider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when EMBED_PROVIDER=gemini")
		}
	case "openai":
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when EMBED_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("EMBED_PROVIDER must be 'gemini' or 'openai'")
	}
	if c.ClusterCutoff <= 0 || c.ClusterCutoff > 1 {
		return fmt.Errorf("CLUSTER_THRESHOLD must be in (0, 1], got %v", c.ClusterCutoff)
	}
	if c.FetchAttempts < 1 {
		return fmt.Errorf("FETCH_ATTEMPTS must be at least 1")
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == "") {
		return fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

// TelegramEnabled reports whether digests can be published.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}
