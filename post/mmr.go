package post

import (
	"github.com/inscope-ai/ragcore/schema"
	"github.com/inscope-ai/ragcore/tokenize"
)

const (
	mmrSelectMax = 5
	// Cross-insurer redundancy weighs more than same-insurer redundancy:
	// two documents from one insurer legitimately restate the same product.
	mmrCrossInsurerSim = 0.7
	mmrSameInsurerSim  = 0.3
	mmrUnseenInsurer   = 0.1
	mmrLambdaTargeted  = 0.8
	mmrLambdaDefault   = 0.7
)

// mmrSelect greedily picks up to five passages balancing relevance against
// redundancy with already-selected passages, with a bonus for passages from
// an insurer not yet represented.
func (e *Engine) mmrSelect(passages []schema.Passage, target string) []schema.Passage {
	if len(passages) <= 1 {
		return passages
	}
	lambda := mmrLambdaDefault
	if target != "" {
		lambda = mmrLambdaTargeted
	}

	remaining := make([]schema.Passage, len(passages))
	copy(remaining, passages)
	var selected []schema.Passage
	seenInsurers := map[string]struct{}{}

	for len(selected) < mmrSelectMax && len(remaining) > 0 {
		bestIdx := -1
		bestScore := 0.0
		for i, cand := range remaining {
			maxSim := 0.0
			for _, sel := range selected {
				sim := pairSimilarity(cand, sel)
				if sim > maxSim {
					maxSim = sim
				}
			}
			score := lambda*cand.Score - (1-lambda)*maxSim
			if _, seen := seenInsurers[cand.Insurer]; !seen && cand.Insurer != "" {
				score += mmrUnseenInsurer
			}
			if bestIdx == -1 || score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}
		pick := remaining[bestIdx]
		selected = append(selected, pick)
		if pick.Insurer != "" {
			seenInsurers[pick.Insurer] = struct{}{}
		}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

func pairSimilarity(a, b schema.Passage) float64 {
	j := tokenize.Jaccard(a.Text, b.Text)
	if a.Insurer != "" && a.Insurer == b.Insurer {
		return mmrSameInsurerSim * j
	}
	return mmrCrossInsurerSim * j
}
