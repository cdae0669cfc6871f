package embed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEncoder talks to any OpenAI-compatible /embeddings endpoint.
type OpenAIEncoder struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIEncoder(apiKey, baseURL, model string, timeout time.Duration) *OpenAIEncoder {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEncoder{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

func (o *OpenAIEncoder) Model() string {
	return o.model
}

func (o *OpenAIEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(o.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if err := checkCount(len(resp.Data), len(texts)); err != nil {
		return nil, err
	}

	// The API reports each vector's input position; don't trust response order.
	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
