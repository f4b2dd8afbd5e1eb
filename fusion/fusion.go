package fusion

import (
	"sort"

	"github.com/inscope-ai/ragcore/metrics"
	"github.com/inscope-ai/ragcore/schema"
)

// Options control one merge.
type Options struct {
	// Alpha weights the vector side; the keyword side gets 1-Alpha.
	Alpha float64
	// WebWeight multiplies normalized web scores, keeping pseudo-passages
	// subordinate to corpus evidence.
	WebWeight float64
	Norm      Normalizer
}

// Component names written by Merge.
const (
	ComponentVectorNorm  = "score_vec_norm"
	ComponentKeywordNorm = "score_kw_norm"
	ComponentWebNorm     = "score_web_norm"
	ComponentFused       = "score_fused"
)

type groupKey struct {
	docID string
	page  int
}

// Merge fuses the three candidate lists into one ranked set. Candidates are
// grouped by (doc_id, page): a chunk found by both retrievers contributes
// both signals to a single fused entry. Output order is deterministic for
// identical inputs.
func Merge(vec, kw, web []schema.Passage, opts Options) []schema.Passage {
	norm := opts.Norm
	if norm == nil {
		norm = MinMax{}
	}
	alpha := opts.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = 0.6
	}
	webWeight := opts.WebWeight
	if webWeight <= 0 {
		webWeight = 0.2
	}

	vecN := norm.Normalize(rawScores(vec))
	kwN := norm.Normalize(rawScores(kw))
	webN := norm.Normalize(rawScores(web))

	merged := map[groupKey]*schema.Passage{}
	var order []groupKey

	upsert := func(p schema.Passage) *schema.Passage {
		key := groupKey{docID: p.DocID, page: p.Page}
		if got, ok := merged[key]; ok {
			return got
		}
		cp := p
		cp.Score = 0
		cp.ScoreComponents = nil
		for name, v := range p.ScoreComponents {
			cp.Component(name, v)
		}
		merged[key] = &cp
		order = append(order, key)
		return &cp
	}

	for i, p := range vec {
		m := upsert(p)
		m.Component(ComponentVectorNorm, vecN[i])
	}
	for i, p := range kw {
		m := upsert(p)
		m.Component(ComponentKeywordNorm, kwN[i])
		// Keyword hits can carry richer metadata than the vector store
		// returns; fill gaps, never overwrite.
		if m.Title == "" {
			m.Title = p.Title
		}
		if m.DocType == "" {
			m.DocType = p.DocType
		}
	}
	for i, p := range web {
		m := upsert(p)
		m.Component(ComponentWebNorm, webN[i])
	}

	out := make([]schema.Passage, 0, len(order))
	for _, key := range order {
		m := merged[key]
		var fused float64
		if m.Source == schema.SourceWeb {
			fused = webWeight * m.ScoreComponents[ComponentWebNorm]
		} else {
			nv := m.ScoreComponents[ComponentVectorNorm]
			nk := m.ScoreComponents[ComponentKeywordNorm]
			fused = alpha*nv + (1-alpha)*nk
		}
		m.Score = fused
		m.Component(ComponentFused, fused)
		out = append(out, *m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].DocID != out[j].DocID {
			return out[i].DocID < out[j].DocID
		}
		return out[i].Page < out[j].Page
	})
	metrics.ObserveFusion(len(out))
	return out
}

func rawScores(ps []schema.Passage) []float64 {
	if len(ps) == 0 {
		return nil
	}
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Score
	}
	return out
}
