// Package embeddings turns fault code entries and engineer queries into
// vectors for the knowledge index.
package embeddings

import (
	"context"
	"fmt"
)

// Embedder produces one vector per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// KeySource resolves an API key by its environment variable name.
// auth.Source satisfies it.
type KeySource interface {
	Lookup(env string) (string, bool)
}

// checkCount fails when a provider answered with the wrong number of vectors.
func checkCount(provider string, got, want int) error {
	if got != want {
		return fmt.Errorf("%s returned %d embeddings for %d texts", provider, got, want)
	}
	return nil
}
