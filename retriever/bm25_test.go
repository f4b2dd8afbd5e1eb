package retriever

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inscope-ai/ragcore/schema"
)

func seedIndex() *BM25Retriever {
	idx := NewBM25()
	idx.Add(schema.Passage{
		DocID: "samsung-terms", Page: 3, Insurer: "삼성보험", DocType: "terms",
		Title: "해외 치료비 보장", Text: "해외 여행 중 질병 치료비 보장 한도는 계약에 따릅니다",
	})
	idx.Add(schema.Passage{
		DocID: "hyundai-terms", Page: 7, Insurer: "현대보험", DocType: "terms",
		Title: "휴대품 손해", Text: "휴대품 손해 보장은 도난 파손 분실에 적용됩니다",
	})
	idx.Add(schema.Passage{
		DocID: "samsung-notice", Page: 1, Insurer: "삼성보험", DocType: "notice",
		Title: "가입 안내", Text: "보험 가입 절차와 청구 서류 안내",
	})
	return idx
}

func TestBM25RanksRelevantFirst(t *testing.T) {
	idx := seedIndex()
	got, err := idx.Search(context.Background(), "치료비 보장 한도", 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "samsung-terms", got[0].DocID)
	assert.Greater(t, got[0].Score, 0.0)
	assert.Equal(t, got[0].Score, got[0].ScoreComponents[ComponentKeyword])
}

func TestBM25TopKBound(t *testing.T) {
	idx := seedIndex()
	got, err := idx.Search(context.Background(), "보장", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestBM25NoMatch(t *testing.T) {
	idx := seedIndex()
	got, err := idx.Search(context.Background(), "자동차 정비", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBM25EmptyIndex(t *testing.T) {
	idx := NewBM25()
	got, err := idx.Search(context.Background(), "보장", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// Indexed passages can arrive with a components map already populated (the
// corpus JSONL carries score_components verbatim). Result copies must not
// write through it.
func TestBM25DoesNotMutateIndexedComponents(t *testing.T) {
	idx := NewBM25()
	idx.Add(schema.Passage{
		DocID: "samsung-terms", Page: 3, Insurer: "삼성보험", DocType: "terms",
		Title: "해외 치료비 보장", Text: "해외 여행 중 질병 치료비 보장 한도는 계약에 따릅니다",
		ScoreComponents: map[string]float64{"ingest_quality": 0.9},
	})

	first, err := idx.Search(context.Background(), "치료비 보장", 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := idx.Search(context.Background(), "보장 한도", 10)
	require.NoError(t, err)
	require.Len(t, second, 1)

	// Each result carries its own map; distinct queries keep distinct scores.
	assert.Equal(t, 0.9, first[0].ScoreComponents["ingest_quality"])
	assert.Equal(t, first[0].Score, first[0].ScoreComponents[ComponentKeyword])
	assert.Equal(t, second[0].Score, second[0].ScoreComponents[ComponentKeyword])
	assert.NotEqual(t, first[0].Score, second[0].Score)

	first[0].ScoreComponents["ingest_quality"] = 0.1
	assert.Equal(t, 0.9, second[0].ScoreComponents["ingest_quality"])
}
