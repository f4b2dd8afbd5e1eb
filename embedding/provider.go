// Package embedding turns text into dense vectors for retrieval.
package embedding

import "context"

// Provider computes embeddings for a batch of texts. Implementations return
// one vector per input text, in input order.
type Provider interface {
	// Embed returns vectors for texts. len(result) == len(texts) on success.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model identifies the embedding model, used for cache keying.
	Model() string
}
