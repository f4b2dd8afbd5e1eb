package retriever

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/schema"
)

func TestWebSearchDuckDuckGo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "여행보험 환율", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"Heading": "여행보험",
			"AbstractText": "여행보험은 해외 여행 중 사고를 보장한다",
			"AbstractURL": "https://example.com/a",
			"RelatedTopics": [
				{"Text": "환율 우대 안내", "FirstURL": "https://example.com/b"},
				{"Text": "", "FirstURL": "https://example.com/c"}
			]
		}`))
	}))
	defer srv.Close()

	r := NewWeb(config.WebConfig{Provider: "duckduckgo", Endpoint: srv.URL}, nil)
	got, err := r.Search(context.Background(), "여행보험 환율", 3)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, schema.SourceWeb, got[0].Source)
	assert.Equal(t, "https://example.com/a", got[0].URL)
	assert.False(t, got[0].VersionDate.IsZero())

	// Provider ranking survives as a descending score_web.
	assert.Equal(t, 1.0, got[0].ScoreComponents[ComponentWeb])
	assert.Equal(t, got[0].Score, got[0].ScoreComponents[ComponentWeb])
	assert.Greater(t, got[1].ScoreComponents[ComponentWeb], 0.0)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestWebSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	r := NewWeb(config.WebConfig{Provider: "duckduckgo", Endpoint: srv.URL}, nil)
	_, err := r.Search(context.Background(), "여행보험", 3)
	assert.Error(t, err)
}
