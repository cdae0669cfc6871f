package embed

import (
	"context"
	"fmt"

	"github.com/deusflow/headlines/internal/config"
	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/storage"
)

type modelEncoder interface {
	Encoder
	Model() string
}

// NewLoader returns a Loader for the configured provider. Vectors are kept in
// cfg.ModelCacheDir; if that directory is unusable the loader falls back to
// the network encoder alone.
func NewLoader(cfg *config.Config) Loader {
	return func(ctx context.Context) (Encoder, error) {
		backend, err := newBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return withLocalCache(backend, cfg.ModelCacheDir), nil
	}
}

func newBackend(ctx context.Context, cfg *config.Config) (modelEncoder, error) {
	switch cfg.EmbedProvider {
	case "openai":
		return NewOpenAIEncoder(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.EncodeTimeout), nil
	case "gemini", "":
		enc, err := NewGeminiEncoder(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EncodeTimeout)
		if err != nil {
			return nil, err
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unknown embed provider %q", cfg.EmbedProvider)
	}
}

func withLocalCache(backend modelEncoder, dir string) Encoder {
	if dir == "" {
		return backend
	}

	store, err := storage.NewVectorFile(dir, backend.Model())
	if err != nil {
		logger.Warn("model cache unavailable, encoding over the network only", "dir", dir, "err", err)
		return backend
	}
	if err := store.Load(); err != nil {
		logger.Warn("model cache unreadable, starting empty", "path", store.Path(), "err", err)
	}
	logger.Info("embedding encoder ready", "model", backend.Model(), "cached_vectors", store.Len())
	return NewCached(backend, store)
}
