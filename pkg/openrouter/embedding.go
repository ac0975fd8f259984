package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
)

// Embedder turns text into vectors through the OpenAI-compatible embeddings endpoint.
type Embedder struct {
	client *openaisdk.Client
	model  string
}

func NewEmbedder(client *openaisdk.Client, model string) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("openrouter: embedding client is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("openrouter: embedding model is required")
	}
	return &Embedder{client: client, model: model}, nil
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openaisdk.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openrouter: create embeddings: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(out) {
			return nil, fmt.Errorf("openrouter: embedding index %d out of range", idx)
		}
		vec := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			vec[i] = float32(x)
		}
		out[idx] = vec
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("openrouter: missing embedding for input %d", i)
		}
	}
	return out, nil
}
