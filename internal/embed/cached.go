package embed

import (
	"context"

	"github.com/deusflow/headlines/internal/logger"
	"github.com/deusflow/headlines/internal/storage"
)

// Cached serves vectors from the local model cache directory and only sends
// misses to the network encoder.
type Cached struct {
	inner Encoder
	store *storage.VectorFile
}

func NewCached(inner Encoder, store *storage.VectorFile) *Cached {
	return &Cached{inner: inner, store: store}
}

func (c *Cached) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		if v, ok := c.store.Get(t); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	logger.Debug("embedding cache lookup", "hits", len(texts)-len(missTexts), "misses", len(missTexts))
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.inner.EncodeBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if err := checkCount(len(vectors), len(missTexts)); err != nil {
		return nil, err
	}

	for k, i := range missIdx {
		out[i] = vectors[k]
		c.store.Put(missTexts[k], vectors[k])
	}
	if err := c.store.Save(); err != nil {
		logger.Warn("failed to persist embedding cache", "path", c.store.Path(), "err", err)
	}

	return out, nil
}
