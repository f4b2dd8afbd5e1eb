// Package post refines fused search candidates: dedup, multi-signal rerank,
// MMR diversification, quality filtering, and the final per-intent cap.
package post

import (
	"github.com/inscope-ai/ragcore/gazetteer"
	"github.com/inscope-ai/ragcore/schema"
)

// Meta records per-stage counts for one refine pass.
type Meta struct {
	Input       int
	AfterDedup  int
	AfterMMR    int
	AfterFilter int
	Final       int
}

// Engine runs the refine pipeline. Zero value is not usable; use New.
type Engine struct {
	gaz *gazetteer.Gazetteer
}

func New(gaz *gazetteer.Gazetteer) *Engine {
	if gaz == nil {
		gaz = gazetteer.New()
	}
	return &Engine{gaz: gaz}
}

// Refine never fails: empty input yields an empty refined list.
func (e *Engine) Refine(passages []schema.Passage, question, intent string) ([]schema.Passage, Meta) {
	meta := Meta{Input: len(passages)}
	if len(passages) == 0 {
		return nil, meta
	}

	target, literal := e.gaz.Detect(question)

	deduped := Dedup(passages)
	meta.AfterDedup = len(deduped)

	reranked := e.rerank(deduped, question, target, literal)

	selected := e.mmrSelect(reranked, target)
	meta.AfterMMR = len(selected)

	filtered := qualityFilter(selected)
	meta.AfterFilter = len(filtered)

	final := topK(filtered, schema.DocCap(intent))
	meta.Final = len(final)
	return final, meta
}

// Dedup removes passages with exactly duplicate text, keeping first
// occurrence. Blank-text passages are dropped outright.
func Dedup(passages []schema.Passage) []schema.Passage {
	seen := make(map[string]struct{}, len(passages))
	out := make([]schema.Passage, 0, len(passages))
	for _, p := range passages {
		if p.Text == "" {
			continue
		}
		if _, dup := seen[p.Text]; dup {
			continue
		}
		seen[p.Text] = struct{}{}
		out = append(out, p)
	}
	return out
}
