package eval

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inscope-ai/ragcore/answer"
	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/gate"
	"github.com/inscope-ai/ragcore/orchestrator"
	"github.com/inscope-ai/ragcore/post"
	"github.com/inscope-ai/ragcore/retriever"
	"github.com/inscope-ai/ragcore/schema"
	"github.com/inscope-ai/ragcore/search"
	"github.com/inscope-ai/ragcore/verify"
)

type echoAnswerer struct{}

func (echoAnswerer) Answer(_ context.Context, req answer.Request) (*schema.Answer, error) {
	return &schema.Answer{
		Conclusion: req.Question + " 관련 약관 기준 안내입니다",
		Evidence:   []string{strings.Repeat("약관에 명시된 치료비 보장 조건과 청구 절차 안내 ", 10)},
	}, nil
}

func newRunner(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()
	idx := retriever.NewBM25()
	filler := strings.Repeat("보장 한도와 청구 절차에 대한 세부 설명 ", 6)
	idx.Add(schema.Passage{
		DocID: "samsung-terms", Page: 3, Version: "2025-01", Insurer: "삼성보험",
		DocType: "terms", Source: schema.SourceCorpus,
		Title: "치료비 보장", Text: "해외 치료비 보장 한도 안내 " + filler,
		VersionDate: time.Now().AddDate(0, -2, 0),
	})
	eng, err := search.New(nil, idx, nil, nil, config.Default().Search)
	require.NoError(t, err)
	loader := config.NewPolicyLoader(config.PolicyConfig{})
	runner, err := orchestrator.New(orchestrator.Deps{
		Search:    eng,
		Post:      post.New(nil),
		Verify:    verify.New(loader),
		Answerer:  echoAnswerer{},
		Gate:      gate.New(nil, 0),
		Replanner: gate.NewReplanner(nil, nil),
		Policy:    loader,
	})
	require.NoError(t, err)
	return runner
}

func TestHarnessPreservesRequestOrder(t *testing.T) {
	h := NewHarness(newRunner(t), 3)

	requests := make([]schema.TurnRequest, 8)
	for i := range requests {
		requests[i] = schema.TurnRequest{
			Question: fmt.Sprintf("질문 %d 치료비 보장 한도 알려줘", i),
			Intent:   "qa",
		}
	}
	results := h.Run(context.Background(), requests)

	require.Len(t, results, len(requests))
	for i, r := range results {
		assert.Equal(t, requests[i].Question, r.Question, "result %d out of order", i)
		require.NotNil(t, r.Answer)
		assert.NotEmpty(t, r.Answer.Conclusion)
	}
}

func TestHarnessDefaultWidth(t *testing.T) {
	h := NewHarness(newRunner(t), 0)
	assert.Equal(t, defaultWidth, h.Width)
}

func TestSummarize(t *testing.T) {
	results := []schema.TurnResult{
		{QualityScore: 0.9},
		{QualityScore: 0.5, ReplanCount: 2, Warnings: []string{"w"}},
		{QualityScore: 0.7, EmergencyFallbackUsed: true},
	}
	s := Summarize(results)
	assert.Equal(t, 3, s.Turns)
	assert.InDelta(t, 0.7, s.MeanQuality, 1e-9)
	assert.Equal(t, 2, s.ReplanTotal)
	assert.Equal(t, 1, s.EmergencyUsed)
	assert.Equal(t, 1, s.WithWarnings)

	assert.Equal(t, Summary{}, Summarize(nil))
}
