// Package vectordb abstracts the dense-vector store behind passage search.
package vectordb

import (
	"context"

	"github.com/inscope-ai/ragcore/schema"
)

// SearchOptions bound a single vector search.
type SearchOptions struct {
	TopK      int
	Threshold float64 // drop hits with similarity below this; 0 keeps all
}

// VectorStore searches a passage collection by embedding similarity.
type VectorStore interface {
	// Search returns the nearest passages for a query vector, best first.
	// Returned passages carry the raw similarity in Score.
	Search(ctx context.Context, vector []float32, opts SearchOptions) ([]schema.Passage, error)
	Close() error
}
