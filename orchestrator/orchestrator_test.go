package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inscope-ai/ragcore/answer"
	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/gate"
	"github.com/inscope-ai/ragcore/post"
	"github.com/inscope-ai/ragcore/ragerr"
	"github.com/inscope-ai/ragcore/retriever"
	"github.com/inscope-ai/ragcore/schema"
	"github.com/inscope-ai/ragcore/search"
	"github.com/inscope-ai/ragcore/verify"
)

type stubAnswerer struct {
	draft *schema.Answer
	err   error
	calls int
}

func (s *stubAnswerer) Answer(context.Context, answer.Request) (*schema.Answer, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.draft, nil
}

func corpusIndex() *retriever.BM25Retriever {
	idx := retriever.NewBM25()
	filler := strings.Repeat("세부 조항과 적용 조건 설명 ", 6)
	idx.Add(schema.Passage{
		DocID: "samsung-terms", Page: 3, Version: "2025-01", Insurer: "삼성보험",
		DocType: "terms", Source: schema.SourceCorpus,
		Title: "치료비 보장", Text: "해외 치료비 보장 한도 안내 " + filler,
		VersionDate: time.Now().AddDate(0, -2, 0),
	})
	idx.Add(schema.Passage{
		DocID: "samsung-notice", Page: 1, Version: "2025-02", Insurer: "삼성보험",
		DocType: "notice", Source: schema.SourceCorpus,
		Title: "가입 안내", Text: "보험 가입 절차와 치료비 청구 서류 " + filler,
		VersionDate: time.Now().AddDate(0, -1, 0),
	})
	return idx
}

func newOrchestrator(t *testing.T, ans answer.Answerer, g *gate.Gate, maxSteps int) *Orchestrator {
	t.Helper()
	eng, err := search.New(nil, corpusIndex(), nil, nil, config.Default().Search)
	require.NoError(t, err)
	loader := config.NewPolicyLoader(config.PolicyConfig{})
	o, err := New(Deps{
		Search:    eng,
		Post:      post.New(nil),
		Verify:    verify.New(loader),
		Answerer:  ans,
		Gate:      g,
		Replanner: gate.NewReplanner(nil, nil),
		Policy:    loader,
		MaxSteps:  maxSteps,
	})
	require.NoError(t, err)
	return o
}

func goodDraft() *schema.Answer {
	return &schema.Answer{
		Conclusion: "해외 치료비 보장 한도는 약관 기준을 따릅니다",
		Evidence:   []string{strings.Repeat("약관에 명시된 치료비 보장 조건입니다 ", 10)},
	}
}

func TestRunHappyPath(t *testing.T) {
	ans := &stubAnswerer{draft: goodDraft()}
	o := newOrchestrator(t, ans, gate.New(nil, 0.7), 0)

	result := o.Run(context.Background(), schema.TurnRequest{Question: "치료비 보장 한도 알려줘"})
	require.NotNil(t, result.Answer)
	assert.Equal(t, goodDraft().Conclusion, result.Answer.Conclusion)
	assert.Equal(t, 0, result.ReplanCount)
	assert.False(t, result.EmergencyFallbackUsed)
	assert.NotEmpty(t, result.Trace)
	assert.NotEmpty(t, result.Citations)
	assert.NotEmpty(t, result.Disclaimer)
	assert.Equal(t, 1, ans.calls)
}

func TestRunReplanBound(t *testing.T) {
	// Scorer always demands a replan; overrides must still terminate the
	// loop within the attempt budget.
	scorer := &alwaysReplanScorer{}
	ans := &stubAnswerer{draft: goodDraft()}
	o := newOrchestrator(t, ans, gate.New(scorer, 0.7), 0)

	result := o.Run(context.Background(), schema.TurnRequest{
		Question:          "치료비 보장 한도",
		MaxReplanAttempts: 2,
	})
	require.NotNil(t, result.Answer)
	assert.LessOrEqual(t, result.ReplanCount, 2)
}

type alwaysReplanScorer struct{}

func (alwaysReplanScorer) GetProviderType() string { return "mock" }

func (alwaysReplanScorer) GenerateCompletion(context.Context, string) (string, error) {
	return `{"score": 0.1, "feedback": "부족", "needs_replan": true}`, nil
}

func TestRunStepBudgetTerminates(t *testing.T) {
	ans := &stubAnswerer{draft: goodDraft()}
	o := newOrchestrator(t, ans, gate.New(nil, 0.7), 2)

	result := o.Run(context.Background(), schema.TurnRequest{Question: "치료비 보장 한도"})
	require.NotNil(t, result.Answer)
	assert.NotEmpty(t, result.Warnings)
	assert.LessOrEqual(t, len(result.Trace), 2)
}

func TestRunEmergencyEscapeOnStructuredFailures(t *testing.T) {
	ans := &stubAnswerer{err: ragerr.Errorf(ragerr.KindStructuredOutput, "bad json")}
	o := newOrchestrator(t, ans, gate.New(nil, 0.7), 0)

	result := o.Run(context.Background(), schema.TurnRequest{Question: "치료비 보장 한도"})
	require.NotNil(t, result.Answer)
	assert.True(t, result.EmergencyFallbackUsed)
	// Fallback answer carries the disclaimer as a caveat.
	assert.NotEmpty(t, result.Answer.Caveats)
}

func TestRunAlwaysReturnsAnswerOnEmptySearch(t *testing.T) {
	eng, err := search.New(nil, retriever.NewBM25(), nil, nil, config.Default().Search)
	require.NoError(t, err)
	loader := config.NewPolicyLoader(config.PolicyConfig{})
	ans := &stubAnswerer{draft: goodDraft()}
	o, err := New(Deps{
		Search:    eng,
		Post:      post.New(nil),
		Verify:    verify.New(loader),
		Answerer:  ans,
		Gate:      gate.New(nil, 0.7),
		Replanner: gate.NewReplanner(nil, nil),
		Policy:    loader,
	})
	require.NoError(t, err)

	result := o.Run(context.Background(), schema.TurnRequest{Question: "존재하지 않는 주제"})
	require.NotNil(t, result.Answer)
	require.NotEmpty(t, result.SearchMeta)
	assert.Equal(t, schema.ReasonNoSearchResults, result.SearchMeta[0].Reason)
}
