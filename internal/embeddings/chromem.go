package embeddings

import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// ToChromemFunc adapts e to the single-text function the chromem index
// calls for documents and queries. Surrounding whitespace is dropped so a
// seed entry and a typed query with the same words embed identically.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vecs, err := e.Embed(ctx, []string{strings.TrimSpace(text)})
		if err != nil {
			return nil, fmt.Errorf("embedding with %s: %w", e.Name(), err)
		}
		if len(vecs) != 1 || len(vecs[0]) == 0 {
			return nil, fmt.Errorf("embedding with %s: no vector returned", e.Name())
		}
		return vecs[0], nil
	}
}
