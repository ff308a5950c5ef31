package embeddings

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/ziadkadry99/boilerbrain/internal/llm"
)

const defaultGeminiEmbeddingModel = "gemini-embedding-001"

// GeminiEmbedder generates embeddings using the Google Gen AI SDK.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
}

// NewGeminiEmbedder creates a new Gemini embedder. dimensions truncates the
// output vectors when positive.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int) (*GeminiEmbedder, error) {
	if model == "" {
		model = defaultGeminiEmbeddingModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: model, dimensions: dimensions}, nil
}

func (e *GeminiEmbedder) Name() string {
	return e.model
}

func (e *GeminiEmbedder) Dimensions() int {
	if e.dimensions > 0 {
		return e.dimensions
	}
	return 3072
}

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	var cfg *genai.EmbedContentConfig
	if e.dimensions > 0 {
		dims := int32(e.dimensions)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dims}
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, llm.Classify("gemini/"+e.model, err)
	}
	if err := checkCount("gemini/"+e.model, len(resp.Embeddings), len(texts)); err != nil {
		return nil, err
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}
