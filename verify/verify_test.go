package verify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/schema"
)

func newEngine() *Engine {
	return New(config.NewPolicyLoader(config.PolicyConfig{}))
}

func solid(docID, insurer, text string) schema.Passage {
	return schema.Passage{
		DocID: docID, Page: 1, Version: "2024-01", Insurer: insurer,
		DocType: "terms", Source: schema.SourceCorpus,
		Text: text + " " + strings.Repeat("세부 조항 설명 ", 10),
		Score: 0.8, VersionDate: time.Now().AddDate(0, -1, 0),
	}
}

func TestVerifyConflictingAmountsFail(t *testing.T) {
	e := newEngine()
	refined := []schema.Passage{
		solid("a1", "A", "의료비 보장 한도는 1억원"),
		solid("b1", "B", "의료비 보장 한도는 5천만원"),
		solid("b2", "B", "휴대품 손해 보장 안내"),
	}
	result, _, _ := e.Verify(refined, schema.IntentCompare, nil)
	assert.Equal(t, schema.VerifyFail, result.Status)
	assert.Equal(t, schema.ActionBroadenSearch, result.NextAction)

	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "상충") {
			found = true
		}
	}
	assert.True(t, found, "conflict warning expected: %v", result.Warnings)
}

func TestVerifyIdenticalAmountsNoConflict(t *testing.T) {
	e := newEngine()
	refined := []schema.Passage{
		solid("a1", "A", "의료비 보장 한도는 1억원"),
		solid("b1", "B", "의료비 보장 한도는 1억원"),
	}
	result, _, _ := e.Verify(refined, schema.IntentQA, nil)
	for _, w := range result.Warnings {
		assert.NotContains(t, w, "상충")
	}
	assert.Equal(t, schema.VerifyPass, result.Status)
}

func TestVerifyEmptyRefinedWarnsAndBroadens(t *testing.T) {
	e := newEngine()
	result, annotated, citations := e.Verify(nil, schema.IntentQA, nil)
	assert.Equal(t, schema.VerifyWarn, result.Status)
	assert.Equal(t, schema.ActionBroadenSearch, result.NextAction)
	assert.Empty(t, annotated)
	assert.Empty(t, citations)
	assert.NotEmpty(t, result.Disclaimer)
}

func TestVerifyStaleDocumentFails(t *testing.T) {
	e := newEngine()
	old := solid("a1", "A", "의료비 보장 한도는 1억원")
	old.VersionDate = time.Now().AddDate(-3, 0, 0)
	result, annotated, _ := e.Verify([]schema.Passage{old}, schema.IntentQA, nil)
	assert.Equal(t, schema.VerifyFail, result.Status)
	assert.Equal(t, schema.ActionBroadenSearch, result.NextAction)
	require.Len(t, annotated, 1)
	assert.True(t, annotated[0].NeedsMoreSearch)
	assert.Equal(t, 1, result.Metrics.StaleCount)
}

func TestVerifyLowScoreFlagOncePerCategory(t *testing.T) {
	e := newEngine()
	p1 := solid("a1", "A", "보장 내용")
	p1.Score = 0.02
	p2 := solid("a2", "A", "특약 내용")
	p2.Score = 0.03
	result, _, _ := e.Verify([]schema.Passage{p1, p2}, schema.IntentQA, nil)
	assert.Equal(t, 2, result.Metrics.LowScoreCount)

	count := 0
	for _, w := range result.Warnings {
		if strings.Contains(w, "신뢰도") {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestVerifyDedupAndSourceWeights(t *testing.T) {
	e := newEngine()
	a := solid("a1", "A", "약관 본문")
	dup := a
	notice := solid("a2", "A", "공지 본문")
	notice.DocType = "notice"
	result, annotated, _ := e.Verify([]schema.Passage{a, dup, notice}, schema.IntentQA, nil)
	require.Len(t, annotated, 2)
	assert.Equal(t, 2, result.Metrics.ContextCount)
	assert.Greater(t, annotated[0].SourceWeight, annotated[1].SourceWeight)
}

func TestVerifyCitationsTargetInsurerFirst(t *testing.T) {
	e := newEngine()
	refined := []schema.Passage{
		solid("h1", "현대보험", "현대 보장 내용"),
		solid("s1", "삼성보험", "삼성 보장 내용"),
	}
	_, _, citations := e.Verify(refined, schema.IntentQA, []string{"삼성보험"})
	require.Len(t, citations, 2)
	assert.Equal(t, "삼성보험", citations[0].Insurer)
	assert.True(t, citations[0].IsInsurerMatch)
	assert.False(t, citations[1].IsInsurerMatch)
}

func TestSnippetMasksPII(t *testing.T) {
	s := snippet("문의 010-1234-5678 주민번호 900101-2345678 접수")
	assert.NotContains(t, s, "010-1234-5678")
	assert.NotContains(t, s, "900101-2345678")
}

func TestSnippetCapped(t *testing.T) {
	s := snippet(strings.Repeat("가", 500))
	assert.LessOrEqual(t, len([]rune(s)), snippetMaxRunes+1)
}
