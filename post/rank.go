package post

import (
	"sort"
	"strings"

	"github.com/inscope-ai/ragcore/schema"
	"github.com/inscope-ai/ragcore/tokenize"
)

// Rerank signal weights. The insurer boost intentionally dominates: when a
// user asks about a specific insurer, that insurer's documents must not lose
// to generically similar text from elsewhere.
const (
	weightBase          = 0.4
	weightOverlap       = 0.2
	weightLength        = 0.1
	overlapTitleShare   = 0.7
	overlapBodyShare    = 0.3
	insurerBoostBase    = 0.4
	insurerBoostExact   = 0.2
	insurerBoostLiteral = 0.15
	domainBonusPerTerm  = 0.05
	domainBonusCap      = 0.1
)

var domainBonusTerms = []string{"보장", "한도", "면책", "특약", "보험금", "청구"}

// rerank rescores passages with the multi-signal heuristic, clips to [0,1],
// and sorts descending with a deterministic tie-break.
func (e *Engine) rerank(passages []schema.Passage, question, target string, literal bool) []schema.Passage {
	out := make([]schema.Passage, len(passages))
	copy(out, passages)
	for i := range out {
		p := &out[i]
		base := p.Score
		overlap := overlapTitleShare*tokenize.Overlap(question, p.Title) +
			overlapBodyShare*tokenize.Overlap(question, p.Text)
		score := weightBase*base +
			weightOverlap*overlap +
			weightLength*lengthQuality(p.Text) +
			domainBonus(p.Text) +
			e.insurerBoost(*p, target, literal)
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		p.Score = score
		p.Component("score_rerank", score)
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
	return out
}

// lengthQuality rewards passages in the readable mid band and tapers toward
// the quality-filter bounds.
func lengthQuality(text string) float64 {
	n := len([]rune(text))
	switch {
	case n >= 200 && n <= 1000:
		return 1.0
	case n >= 50 && n < 200:
		return float64(n) / 200
	case n > 1000 && n <= 2000:
		return 1 - float64(n-1000)/2000
	default:
		return 0.2
	}
}

func domainBonus(text string) float64 {
	var bonus float64
	for _, term := range domainBonusTerms {
		if strings.Contains(text, term) {
			bonus += domainBonusPerTerm
			if bonus >= domainBonusCap {
				return domainBonusCap
			}
		}
	}
	return bonus
}

// insurerBoost lifts passages from the target insurer. Alias-level matches
// get the base boost; exact canonical equality and a verbatim mention in the
// question each add more.
func (e *Engine) insurerBoost(p schema.Passage, target string, literal bool) float64 {
	if target == "" || p.Insurer == "" {
		return 0
	}
	if e.gaz.Canonical(p.Insurer) != target {
		return 0
	}
	boost := insurerBoostBase
	if p.Insurer == target {
		boost += insurerBoostExact
	}
	if literal {
		boost += insurerBoostLiteral
	}
	return boost
}
