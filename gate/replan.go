package gate

import (
	"context"
	"strings"

	"github.com/inscope-ai/ragcore/common/logger"
	"github.com/inscope-ai/ragcore/gazetteer"
	"github.com/inscope-ai/ragcore/llm"
	"github.com/inscope-ai/ragcore/metrics"
)

// recencyKeywords flag queries that likely need fresh web results.
var recencyKeywords = []string{"최신", "현재", "실시간", "뉴스", "요즘", "지금", "2024", "2025", "2026"}

// Replanner generates an improved query after a failed quality check.
type Replanner struct {
	Planner llm.Provider
	Gaz     *gazetteer.Gazetteer
}

func NewReplanner(planner llm.Provider, gaz *gazetteer.Gazetteer) *Replanner {
	if gaz == nil {
		gaz = gazetteer.New()
	}
	return &Replanner{Planner: planner, Gaz: gaz}
}

type replanPayload struct {
	Query    string `json:"query"`
	NeedsWeb bool   `json:"needs_web"`
}

// Replan produces the next search query. For comparison questions, every
// insurer named in the original must survive into the new query; if the
// planner drops one, the original question is kept instead.
func (r *Replanner) Replan(ctx context.Context, question, feedback, suggestion string, replanCount int) (string, bool) {
	metrics.IncReplan()

	newQuery, needsWeb, ok := r.planned(ctx, question, feedback, suggestion, replanCount)
	if !ok {
		newQuery = strings.TrimSpace(suggestion)
		if newQuery == "" {
			newQuery = question
		}
		needsWeb = inferNeedsWeb(newQuery)
	}

	if !r.subjectsPreserved(question, newQuery) {
		logger.Warnf("replan: generated query dropped a comparison subject, keeping original")
		return question, needsWeb
	}
	return newQuery, needsWeb
}

func (r *Replanner) planned(ctx context.Context, question, feedback, suggestion string, replanCount int) (string, bool, bool) {
	if r.Planner == nil {
		return "", false, false
	}
	completion, err := r.Planner.GenerateCompletion(ctx, replanPrompt(question, feedback, suggestion, replanCount))
	if err != nil {
		logger.Warnf("replan: planner: %v", err)
		return "", false, false
	}
	var payload replanPayload
	if err := llm.ExtractJSON(completion, &payload); err != nil {
		logger.Warnf("replan: %v", err)
		return "", false, false
	}
	query := strings.TrimSpace(payload.Query)
	if query == "" {
		return "", false, false
	}
	return query, payload.NeedsWeb, true
}

// subjectsPreserved verifies that a multi-insurer question keeps all its
// insurers in the regenerated query, compared at the canonical level.
func (r *Replanner) subjectsPreserved(original, generated string) bool {
	subjects := r.Gaz.FindAll(original)
	if len(subjects) < 2 {
		return true
	}
	found := map[string]struct{}{}
	for _, name := range r.Gaz.FindAll(generated) {
		found[name] = struct{}{}
	}
	for _, name := range subjects {
		if _, ok := found[name]; !ok {
			return false
		}
	}
	return true
}

func inferNeedsWeb(query string) bool {
	for _, kw := range recencyKeywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

func replanPrompt(question, feedback, suggestion string, replanCount int) string {
	var b strings.Builder
	b.WriteString("검색 질의를 개선하라. 원래 의도를 유지하고, 비교 대상 보험사는 모두 포함해야 한다.\n")
	b.WriteString("원래 질문: " + question + "\n")
	if feedback != "" {
		b.WriteString("평가 피드백: " + feedback + "\n")
	}
	if suggestion != "" {
		b.WriteString("제안 질의: " + suggestion + "\n")
	}
	if replanCount > 0 {
		b.WriteString("이전 재시도 횟수를 고려해 더 구체적으로 작성하라.\n")
	}
	b.WriteString(`JSON으로만 응답하라: {"query": "...", "needs_web": false}`)
	return b.String()
}
