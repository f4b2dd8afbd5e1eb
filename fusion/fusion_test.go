package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inscope-ai/ragcore/schema"
)

func corpus(docID string, page int, score float64) schema.Passage {
	return schema.Passage{DocID: docID, Page: page, Source: schema.SourceCorpus, Score: score}
}

func TestMergeGroupsByDocAndPage(t *testing.T) {
	vec := []schema.Passage{corpus("d1", 1, 0.9), corpus("d2", 1, 0.5)}
	kw := []schema.Passage{corpus("d1", 1, 8.0), corpus("d3", 2, 2.0)}

	got := Merge(vec, kw, nil, Options{Alpha: 0.6})
	require.Len(t, got, 3)

	// d1/p1 carries both signals: alpha*1 + (1-alpha)*1 = 1.
	assert.Equal(t, "d1", got[0].DocID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.InDelta(t, 1.0, got[0].ScoreComponents[ComponentVectorNorm], 1e-9)
	assert.InDelta(t, 1.0, got[0].ScoreComponents[ComponentKeywordNorm], 1e-9)
}

func TestMergeSamePageDifferentDocsStayApart(t *testing.T) {
	vec := []schema.Passage{corpus("d1", 1, 0.9)}
	kw := []schema.Passage{corpus("d2", 1, 5.0)}
	got := Merge(vec, kw, nil, Options{Alpha: 0.6})
	assert.Len(t, got, 2)
}

func TestMergeWebDownWeighted(t *testing.T) {
	vec := []schema.Passage{corpus("d1", 1, 0.9), corpus("d2", 1, 0.4)}
	web := []schema.Passage{{DocID: "https://x", Source: schema.SourceWeb, Score: 1}}

	got := Merge(vec, nil, web, Options{Alpha: 0.6, WebWeight: 0.2})
	require.Len(t, got, 3)

	var webScore float64
	for _, p := range got {
		if p.Source == schema.SourceWeb {
			webScore = p.Score
		}
	}
	// Single web hit normalizes to 0.5, weighted 0.2*0.5.
	assert.InDelta(t, 0.1, webScore, 1e-9)
	assert.Equal(t, schema.SourceCorpus, got[0].Source)
}

func TestMergeDeterministic(t *testing.T) {
	vec := []schema.Passage{corpus("b", 1, 0.5), corpus("a", 1, 0.5)}
	kw := []schema.Passage{corpus("c", 1, 1.0), corpus("d", 1, 1.0)}

	first := Merge(vec, kw, nil, Options{})
	second := Merge(vec, kw, nil, Options{})
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].DocID, second[i].DocID)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestMergeAlphaShiftsBalance(t *testing.T) {
	vec := []schema.Passage{corpus("v", 1, 1.0), corpus("x", 2, 0.1)}
	kw := []schema.Passage{corpus("k", 1, 9.0), corpus("x", 2, 0.1)}

	heavyVec := Merge(vec, kw, nil, Options{Alpha: 0.9})
	heavyKw := Merge(vec, kw, nil, Options{Alpha: 0.3})

	pick := func(ps []schema.Passage, id string) float64 {
		for _, p := range ps {
			if p.DocID == id {
				return p.Score
			}
		}
		return -1
	}
	assert.Greater(t, pick(heavyVec, "v"), pick(heavyKw, "v"))
	assert.Greater(t, pick(heavyKw, "k"), pick(heavyVec, "k"))
}
