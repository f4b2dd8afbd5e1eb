// Package gate scores draft answers against retrieved evidence and decides
// whether a turn gets another retrieval cycle.
package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/inscope-ai/ragcore/common/logger"
	"github.com/inscope-ai/ragcore/llm"
	"github.com/inscope-ai/ragcore/metrics"
	"github.com/inscope-ai/ragcore/ragerr"
	"github.com/inscope-ai/ragcore/schema"
	"github.com/inscope-ai/ragcore/tokenize"
)

const (
	defaultThreshold = 0.7
	clampedScore     = 0.5
	floorNonEmpty    = 0.3
	forcedAcceptMin  = 0.8
)

// Gate evaluates draft quality. A nil Scorer always takes the heuristic path.
type Gate struct {
	Scorer    llm.Provider
	Threshold float64
}

func New(scorer llm.Provider, threshold float64) *Gate {
	if threshold <= 0 || threshold > 1 {
		threshold = defaultThreshold
	}
	return &Gate{Scorer: scorer, Threshold: threshold}
}

// Request carries everything the gate needs for one evaluation.
type Request struct {
	Question    string
	Draft       *schema.Answer
	Citations   []schema.Citation
	Refined     []schema.Passage
	ReplanCount int
	MaxAttempts int
}

type scorerPayload struct {
	Score       float64 `json:"score"`
	Feedback    string  `json:"feedback"`
	NeedsReplan bool    `json:"needs_replan"`
	ReplanQuery string  `json:"replan_query"`
}

// Evaluate scores the draft and applies the override rules. The returned
// bool reports a structured-output failure from the scorer, which the
// orchestrator counts toward the emergency escape threshold.
func (g *Gate) Evaluate(ctx context.Context, req Request) (schema.QualityResult, bool) {
	result, structuredFailure := g.score(ctx, req)

	// Override rules, in priority order.
	if req.MaxAttempts > 0 && req.ReplanCount >= req.MaxAttempts {
		result.NeedsReplan = false
		if result.Score < clampedScore {
			result.Score = clampedScore
		}
	}
	if answerText(req.Draft) != "" && result.Score < floorNonEmpty {
		result.Score = floorNonEmpty
	}
	if req.ReplanCount >= 1 {
		result.NeedsReplan = false
		if result.Score < forcedAcceptMin {
			result.Score = forcedAcceptMin
		}
	}

	verdict := "accept"
	if result.NeedsReplan {
		verdict = "replan"
	}
	metrics.IncGateVerdict(verdict)
	return result, structuredFailure
}

func (g *Gate) score(ctx context.Context, req Request) (schema.QualityResult, bool) {
	if g.Scorer == nil {
		return g.heuristic(req), false
	}
	completion, err := g.Scorer.GenerateCompletion(ctx, scorerPrompt(req))
	if err != nil {
		logger.Warnf("gate: scorer: %v", err)
		return g.heuristic(req), false
	}
	var payload scorerPayload
	if err := llm.ExtractJSON(completion, &payload); err != nil {
		logger.Warnf("gate: %v", err)
		return g.heuristic(req), ragerr.Is(err, ragerr.KindStructuredOutput)
	}
	score := payload.Score
	if score < 0 || score > 1 {
		// Out-of-range scores are clamped to a safe default, not trusted.
		score = clampedScore
	}
	return schema.QualityResult{
		Score:       score,
		Feedback:    payload.Feedback,
		NeedsReplan: payload.NeedsReplan,
		ReplanQuery: payload.ReplanQuery,
	}, false
}

// heuristic scores without a scorer: structural completeness plus lexical
// grounding in the question.
func (g *Gate) heuristic(req Request) schema.QualityResult {
	text := answerText(req.Draft)
	var score float64
	if text != "" {
		score = 0.3
		switch n := len([]rune(text)); {
		case n >= 200:
			score += 0.2
		case n >= 80:
			score += 0.1
		}
	}
	if len(req.Citations) > 0 {
		score += 0.2
	}
	if len(req.Refined) > 0 {
		score += 0.1
	}
	if tokenize.Overlap(req.Question, text) >= 0.3 {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	needsReplan := score < g.Threshold
	feedback := "휴리스틱 평가"
	if needsReplan {
		feedback = "휴리스틱 평가: 근거 또는 답변 보강 필요"
	}
	return schema.QualityResult{Score: score, Feedback: feedback, NeedsReplan: needsReplan}
}

func scorerPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("다음 질문과 답변 초안을 평가하라. 근거 인용 수와 검색 문맥을 고려해 0~1 점수를 매겨라.\n")
	fmt.Fprintf(&b, "질문: %s\n", req.Question)
	fmt.Fprintf(&b, "답변: %s\n", answerText(req.Draft))
	fmt.Fprintf(&b, "인용 수: %d, 검색 문맥 수: %d\n", len(req.Citations), len(req.Refined))
	b.WriteString(`JSON으로만 응답하라: {"score": 0.0, "feedback": "...", "needs_replan": false, "replan_query": ""}`)
	return b.String()
}

func answerText(a *schema.Answer) string {
	if a == nil {
		return ""
	}
	return strings.TrimSpace(a.Text())
}
