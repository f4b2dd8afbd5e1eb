package retriever

import (
	"context"
	"fmt"
	"time"

	"github.com/inscope-ai/ragcore/embedding"
	"github.com/inscope-ai/ragcore/metrics"
	"github.com/inscope-ai/ragcore/ragerr"
	"github.com/inscope-ai/ragcore/schema"
	"github.com/inscope-ai/ragcore/vectordb"
)

// VectorRetriever embeds the query and searches the dense store.
type VectorRetriever struct {
	Embedder  embedding.Provider
	Store     vectordb.VectorStore
	Threshold float64
}

func (r *VectorRetriever) Type() string { return "vector" }

func (r *VectorRetriever) Search(ctx context.Context, query string, topK int) ([]schema.Passage, error) {
	start := time.Now()
	vecs, err := r.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, ragerr.E(ragerr.KindRetrieval, fmt.Errorf("vector retriever embed: %w", err))
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	hits, err := r.Store.Search(ctx, vecs[0], vectordb.SearchOptions{TopK: topK, Threshold: r.Threshold})
	if err != nil {
		return nil, err
	}
	for i := range hits {
		hits[i].CloneComponents()
		hits[i].Component(ComponentVector, hits[i].Score)
	}
	metrics.ObserveRetriever(r.Type(), start, len(hits))
	return hits, nil
}

var _ Retriever = (*VectorRetriever)(nil)
