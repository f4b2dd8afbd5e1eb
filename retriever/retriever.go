// Package retriever provides the candidate-generation backends behind hybrid
// search: dense vector lookup, in-process BM25, and web pseudo-passages.
package retriever

import (
	"context"

	"github.com/inscope-ai/ragcore/schema"
)

// Retriever defines a unified search interface across different backends.
type Retriever interface {
	Type() string
	Search(ctx context.Context, query string, topK int) ([]schema.Passage, error)
}

// Score component names recorded by the retrievers.
const (
	ComponentVector  = "score_vec"
	ComponentKeyword = "score_kw"
	ComponentWeb     = "score_web"
)
