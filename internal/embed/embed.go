package embed

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	logx "github.com/partdesk/server/pkg/logger"
)

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GeminiEmbedder produces embeddings through the Gemini API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
	dims   int32
}

// NewGeminiEmbedder wraps an existing Gemini client.
func NewGeminiEmbedder(client *genai.Client, model string, dimensions int) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model, dims: int32(dimensions)}
}

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	cfg := &genai.EmbedContentConfig{}
	if g.dims > 0 {
		cfg.OutputDimensionality = genai.Ptr(g.dims)
	}
	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, cfg)
	if err != nil {
		logx.Error().Err(err).Str("model", g.model).Msg("embedding request failed")
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embed content: empty embedding for model %s", g.model)
	}
	return resp.Embeddings[0].Values, nil
}
