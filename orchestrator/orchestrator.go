// Package orchestrator sequences one question turn through an explicit
// finite-state machine: web search, hybrid search, rank/filter, verify,
// answer, quality gate, and the bounded replan loop.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inscope-ai/ragcore/answer"
	"github.com/inscope-ai/ragcore/common/logger"
	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/gate"
	"github.com/inscope-ai/ragcore/metrics"
	"github.com/inscope-ai/ragcore/post"
	"github.com/inscope-ai/ragcore/ragerr"
	"github.com/inscope-ai/ragcore/retriever"
	"github.com/inscope-ai/ragcore/schema"
	"github.com/inscope-ai/ragcore/search"
	"github.com/inscope-ai/ragcore/verify"
)

const (
	defaultMaxSteps    = 24
	webResultCount     = 3
	fallbackConclusion = "죄송합니다. 현재 확인된 근거만으로는 충분한 답변을 드리기 어렵습니다. 아래 유의사항을 참고해 주세요."
)

// Deps are the orchestrator's collaborators. Answerer is the only external
// one the core does not implement itself.
type Deps struct {
	Search    *search.Engine
	Web       retriever.Retriever
	Post      *post.Engine
	Verify    *verify.Engine
	Answerer  answer.Answerer
	Gate      *gate.Gate
	Replanner *gate.Replanner
	Policy    *config.PolicyLoader
	MaxSteps  int
}

// Orchestrator owns the turn state for the duration of each Run call. It is
// safe for concurrent Runs; all mutable state is turn-scoped.
type Orchestrator struct {
	deps    Deps
	machine *Machine
	trace   tracer
}

// New compiles the transition table and wires the dependencies.
func New(deps Deps) (*Orchestrator, error) {
	if deps.MaxSteps <= 0 {
		deps.MaxSteps = defaultMaxSteps
	}
	machine, err := Compile(map[State][]Edge{
		StateWebSearch:  {{To: StateSearch}},
		StateSearch:     {{To: StateRankFilter}},
		StateRankFilter: {{To: StateVerifyRefine}},
		StateVerifyRefine: {
			{When: wantsBroaden, To: StateReplan},
			{To: StateAnswer},
		},
		StateAnswer: {{To: StateQualityGate}},
		StateQualityGate: {
			{When: wantsReplan, To: StateReplan},
			{To: StateTerminal},
		},
		StateReplan: {
			{When: func(t *schema.TurnState) bool { return t.NeedsWeb }, To: StateWebSearch},
			{To: StateSearch},
		},
	})
	if err != nil {
		return nil, err
	}
	return &Orchestrator{deps: deps, machine: machine}, nil
}

func wantsBroaden(t *schema.TurnState) bool {
	return t.Verification != nil &&
		t.Verification.NextAction == schema.ActionBroadenSearch &&
		t.Verification.Status == schema.VerifyFail &&
		t.ReplanCount < t.MaxReplanAttempts
}

func wantsReplan(t *schema.TurnState) bool {
	return t.Quality != nil &&
		t.Quality.NeedsReplan &&
		t.ReplanCount < t.MaxReplanAttempts
}

// Run executes one turn. It always returns a result with some answer; every
// failure degrades into warnings.
func (o *Orchestrator) Run(ctx context.Context, req schema.TurnRequest) schema.TurnResult {
	policy, _ := o.deps.Policy.Current()

	maxAttempts := req.MaxReplanAttempts
	if maxAttempts <= 0 {
		maxAttempts = policy.System.Replan.MaxAttempts
	}
	intent := req.Intent
	if intent == "" {
		intent = schema.IntentQA
	}
	st := &schema.TurnState{
		TurnID:            uuid.NewString(),
		Question:          req.Question,
		OriginalQuestion:  req.Question,
		Intent:            intent,
		NeedsWeb:          req.NeedsWeb,
		InsurerFilter:     req.InsurerFilter,
		ReplanCount:       req.ReplanCount,
		MaxReplanAttempts: maxAttempts,
	}

	state := StateSearch
	if st.NeedsWeb {
		state = StateWebSearch
	}

	steps := 0
	for state != StateTerminal {
		if steps >= o.deps.MaxSteps {
			err := ragerr.Errorf(ragerr.KindBudgetExceeded, "step budget %d exhausted", o.deps.MaxSteps)
			logger.Warnf("orchestrator: %v", err)
			st.Warn("처리 단계 한도에 도달해 현재까지의 답변으로 종료합니다")
			break
		}
		steps++

		start := time.Now()
		outText := o.execute(ctx, state, st)
		st.Trace = append(st.Trace, schema.TraceRecord{
			Node:      state.String(),
			LatencyMS: time.Since(start).Milliseconds(),
			InTokens:  o.trace.countTokens(st.Question),
			OutTokens: o.trace.countTokens(outText),
		})

		if st.StructuredFailureCount >= policy.System.Replan.MaxStructuredFailures {
			st.EmergencyFallbackUsed = true
			st.Warn("구조화 출력 실패가 반복되어 비상 종료합니다")
			break
		}

		next, err := o.machine.Next(state, st)
		if err != nil {
			logger.Errorf("orchestrator: %v", err)
			break
		}
		state = next
	}
	metrics.ObserveTurnSteps(steps)
	return o.finalize(st, policy)
}

// execute runs one node's side effects and returns the text whose token
// count approximates the node's output volume.
func (o *Orchestrator) execute(ctx context.Context, state State, st *schema.TurnState) string {
	switch state {
	case StateWebSearch:
		if o.deps.Web == nil {
			return ""
		}
		hits, err := o.deps.Web.Search(ctx, st.Question, webResultCount)
		if err != nil {
			logger.Warnf("orchestrator: web search: %v", err)
			st.Warn("웹 검색에 실패해 사내 문서만 사용합니다")
			return ""
		}
		st.WebResults = hits
		return passageText(hits)

	case StateSearch:
		passages, meta := o.deps.Search.Search(ctx, st.Question, st.WebResults)
		st.Passages = passages
		st.SearchMeta = append(st.SearchMeta, meta)
		if strings.HasPrefix(meta.Reason, schema.ReasonSearchErrorPfx) {
			st.Warn("문서 검색 중 오류가 발생해 결과가 제한될 수 있습니다")
		}
		return passageText(passages)

	case StateRankFilter:
		refined, _ := o.deps.Post.Refine(st.Passages, st.Question, st.Intent)
		st.Refined = refined
		return passageText(refined)

	case StateVerifyRefine:
		result, annotated, citations := o.deps.Verify.Verify(st.Refined, st.Intent, st.InsurerFilter)
		st.Verification = &result
		st.Refined = annotated
		st.Citations = citations
		for _, w := range result.Warnings {
			st.Warn(w)
		}
		return strings.Join(result.Warnings, " ")

	case StateAnswer:
		draft, err := o.deps.Answerer.Answer(ctx, answer.Request{
			Question:   st.Question,
			Refined:    st.Refined,
			Citations:  st.Citations,
			WebResults: st.WebResults,
		})
		if err != nil {
			if ragerr.Is(err, ragerr.KindStructuredOutput) {
				st.StructuredFailureCount++
			}
			logger.Warnf("orchestrator: answerer: %v", err)
			st.Warn("답변 생성에 실패했습니다")
			return ""
		}
		st.StructuredFailureCount = 0
		st.Draft = draft
		return draft.Text()

	case StateQualityGate:
		result, structFail := o.deps.Gate.Evaluate(ctx, gate.Request{
			Question:    st.Question,
			Draft:       st.Draft,
			Citations:   st.Citations,
			Refined:     st.Refined,
			ReplanCount: st.ReplanCount,
			MaxAttempts: st.MaxReplanAttempts,
		})
		if structFail {
			st.StructuredFailureCount++
		}
		st.Quality = &result
		return result.Feedback

	case StateReplan:
		feedback, suggestion := "", ""
		if st.Quality != nil {
			feedback = st.Quality.Feedback
			suggestion = st.Quality.ReplanQuery
		}
		newQuery, needsWeb := o.deps.Replanner.Replan(ctx, st.Question, feedback, suggestion, st.ReplanCount)
		st.Question = newQuery
		st.NeedsWeb = needsWeb
		st.ReplanCount++
		return newQuery
	}
	return ""
}

func (o *Orchestrator) finalize(st *schema.TurnState, policy *config.Policy) schema.TurnResult {
	final := st.Draft
	if final == nil {
		final = &schema.Answer{
			Conclusion: fallbackConclusion,
			Caveats:    []string{policy.Disclaimer()},
		}
	}
	st.FinalAnswer = final

	var score float64
	if st.Quality != nil {
		score = st.Quality.Score
	}
	disclaimer := policy.Disclaimer()
	if st.Verification != nil && st.Verification.Disclaimer != "" {
		disclaimer = st.Verification.Disclaimer
	}
	return schema.TurnResult{
		TurnID:                st.TurnID,
		Question:              st.OriginalQuestion,
		Intent:                st.Intent,
		Answer:                final,
		Citations:             st.Citations,
		Warnings:              st.Warnings,
		Disclaimer:            disclaimer,
		QualityScore:          score,
		ReplanCount:           st.ReplanCount,
		EmergencyFallbackUsed: st.EmergencyFallbackUsed,
		Trace:                 st.Trace,
		SearchMeta:            st.SearchMeta,
		Verification:          st.Verification,
	}
}

func passageText(ps []schema.Passage) string {
	var b strings.Builder
	for _, p := range ps {
		b.WriteString(p.Text)
		b.WriteByte(' ')
	}
	return b.String()
}
