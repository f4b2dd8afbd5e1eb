package post

import (
	"sort"

	"github.com/inscope-ai/ragcore/schema"
)

const (
	filterMinScore = 0.1
	filterMinChars = 50
	filterMaxChars = 2000
)

// qualityFilter drops low-score passages and text outside the useful length
// band.
func qualityFilter(passages []schema.Passage) []schema.Passage {
	out := make([]schema.Passage, 0, len(passages))
	for _, p := range passages {
		if p.Score < filterMinScore {
			continue
		}
		n := len([]rune(p.Text))
		if n < filterMinChars || n > filterMaxChars {
			continue
		}
		out = append(out, p)
	}
	return out
}

// topK sorts by score descending and truncates to the per-intent cap.
func topK(passages []schema.Passage, k int) []schema.Passage {
	sorted := make([]schema.Passage, len(passages))
	copy(sorted, passages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}
