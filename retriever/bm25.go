package retriever

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/inscope-ai/ragcore/metrics"
	"github.com/inscope-ai/ragcore/schema"
	"github.com/inscope-ai/ragcore/tokenize"
)

// BM25 parameters; standard Okapi values.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// BM25Retriever is an in-process Okapi BM25 index over the passage corpus.
// Title tokens are indexed alongside body tokens so heading matches count.
type BM25Retriever struct {
	mu      sync.RWMutex
	docs    []schema.Passage
	tf      []map[string]int
	lens    []int
	df      map[string]int
	totalLn int
}

func NewBM25() *BM25Retriever {
	return &BM25Retriever{df: map[string]int{}}
}

func (r *BM25Retriever) Type() string { return "bm25" }

// Add indexes one passage.
func (r *BM25Retriever) Add(p schema.Passage) {
	toks := tokenize.Tokens(p.Title + " " + p.Text)
	tf := make(map[string]int, len(toks))
	for _, tok := range toks {
		tf[tok]++
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, p)
	r.tf = append(r.tf, tf)
	r.lens = append(r.lens, len(toks))
	r.totalLn += len(toks)
	for tok := range tf {
		r.df[tok]++
	}
}

// Len reports the number of indexed passages.
func (r *BM25Retriever) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

func (r *BM25Retriever) Search(_ context.Context, query string, topK int) ([]schema.Passage, error) {
	start := time.Now()
	if topK <= 0 {
		topK = 10
	}
	qToks := tokenize.Tokens(query)
	if len(qToks) == 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.docs)
	if n == 0 {
		return nil, nil
	}
	avgLen := float64(r.totalLn) / float64(n)
	if avgLen == 0 {
		avgLen = 1
	}

	scores := make([]float64, n)
	for _, tok := range qToks {
		df := r.df[tok]
		if df == 0 {
			continue
		}
		idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
		for i := 0; i < n; i++ {
			tf := float64(r.tf[i][tok])
			if tf == 0 {
				continue
			}
			norm := tf * (bm25K1 + 1) / (tf + bm25K1*(1-bm25B+bm25B*float64(r.lens[i])/avgLen))
			scores[i] += idf * norm
		}
	}

	idxs := make([]int, 0, n)
	for i, s := range scores {
		if s > 0 {
			idxs = append(idxs, i)
		}
	}
	sort.Slice(idxs, func(a, b int) bool {
		if scores[idxs[a]] != scores[idxs[b]] {
			return scores[idxs[a]] > scores[idxs[b]]
		}
		return idxs[a] < idxs[b]
	})
	if len(idxs) > topK {
		idxs = idxs[:topK]
	}

	out := make([]schema.Passage, 0, len(idxs))
	for _, i := range idxs {
		p := r.docs[i]
		p.CloneComponents()
		p.Score = scores[i]
		p.Component(ComponentKeyword, scores[i])
		out = append(out, p)
	}
	metrics.ObserveRetriever(r.Type(), start, len(out))
	return out, nil
}

var _ Retriever = (*BM25Retriever)(nil)
