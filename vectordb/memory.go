package vectordb

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/inscope-ai/ragcore/schema"
)

// MemoryStore is an in-process VectorStore over a fixed passage set. It backs
// tests and small offline evaluation corpora.
type MemoryStore struct {
	mu      sync.RWMutex
	vectors [][]float32
	items   []schema.Passage
}

func NewMemory() *MemoryStore { return &MemoryStore{} }

// Add registers a passage with its embedding.
func (s *MemoryStore) Add(p schema.Passage, vec []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, p)
	s.vectors = append(s.vectors, vec)
}

func (s *MemoryStore) Search(_ context.Context, vector []float32, opts SearchOptions) ([]schema.Passage, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		idx   int
		score float64
	}
	hits := make([]scored, 0, len(s.items))
	for i, vec := range s.vectors {
		sim := cosine(vector, vec)
		if opts.Threshold > 0 && sim < opts.Threshold {
			continue
		}
		hits = append(hits, scored{idx: i, score: sim})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].idx < hits[j].idx
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]schema.Passage, len(hits))
	for i, h := range hits {
		p := s.items[h.idx]
		p.Score = h.score
		p.Source = schema.SourceCorpus
		out[i] = p
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ VectorStore = (*MemoryStore)(nil)
