package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiBatchLimit is the most contents BatchEmbedContents accepts per call.
const geminiBatchLimit = 100

type GeminiEncoder struct {
	client  *genai.Client
	model   *genai.EmbeddingModel
	name    string
	timeout time.Duration
}

func NewGeminiEncoder(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiEncoder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	em := client.EmbeddingModel(model)
	em.TaskType = genai.TaskTypeClustering

	return &GeminiEncoder{client: client, model: em, name: model, timeout: timeout}, nil
}

func (g *GeminiEncoder) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *GeminiEncoder) Model() string {
	return g.name
}

func (g *GeminiEncoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiBatchLimit {
		end := min(start+geminiBatchLimit, len(texts))

		batch := g.model.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}

		resp, err := g.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini batch embed: %w", err)
		}
		vectors, err := vectorsFromGemini(resp, end-start)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func vectorsFromGemini(resp *genai.BatchEmbedContentsResponse, want int) ([][]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("no response from Gemini")
	}
	if err := checkCount(len(resp.Embeddings), want); err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = e.Values
	}
	return vectors, nil
}
