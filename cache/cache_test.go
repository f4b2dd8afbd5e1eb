package cache

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inscope-ai/ragcore/schema"
)

// memStore is a map-backed Store for tests.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *memStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *memStore) Count(_ context.Context, prefix string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			n++
		}
	}
	return n
}

func TestSearchRoundTrip(t *testing.T) {
	c := NewWithStore(newMemStore(), 16, time.Minute)
	ctx := context.Background()

	passages := []schema.Passage{
		{DocID: "samsung-terms-2024", Page: 12, Insurer: "삼성보험", Text: "해외 치료비 보장", Score: 0.82},
	}
	extra := map[string]string{"k": "5"}

	_, ok := c.GetSearch(ctx, "삼성화재 치료비 보장 알려줘", extra)
	assert.False(t, ok)

	c.SetSearch(ctx, "삼성화재 치료비 보장 알려줘", extra, passages)

	// Equivalent phrasing must hit the same entry.
	got, ok := c.GetSearch(ctx, "삼성화재 치료비 보장 알려주세요", extra)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "samsung-terms-2024", got[0].DocID)
	assert.InDelta(t, 0.82, got[0].Score, 1e-9)
}

func TestEmbeddingRoundTripIsExactText(t *testing.T) {
	c := NewWithStore(newMemStore(), 16, time.Minute)
	ctx := context.Background()

	c.SetEmbedding(ctx, "text-embedding-3-small", "여행보험 보장", []float32{0.1, 0.2})

	got, ok := c.GetEmbedding(ctx, "text-embedding-3-small", "여행보험 보장")
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2}, got)

	// Different surface text must not collide; embeddings are not normalized.
	_, ok = c.GetEmbedding(ctx, "text-embedding-3-small", "여행보험  보장")
	assert.False(t, ok)
}

func TestLLMRoundTripAndInvalidate(t *testing.T) {
	store := newMemStore()
	c := NewWithStore(store, 16, time.Minute)
	ctx := context.Background()

	extra := map[string]string{"prompt": "answer"}
	c.SetLLM(ctx, "여행자보험 면책 사유", extra, "면책 사유는 다음과 같습니다.")

	got, ok := c.GetLLM(ctx, "여행자보험 면책 사유", extra)
	require.True(t, ok)
	assert.Equal(t, "면책 사유는 다음과 같습니다.", got)

	c.Invalidate(ctx, KindLLM, c.Normalize("여행자보험 면책 사유"), extra)
	_, ok = c.GetLLM(ctx, "여행자보험 면책 사유", extra)
	assert.False(t, ok)
}

func TestL1ServesAfterStoreLoss(t *testing.T) {
	store := newMemStore()
	c := NewWithStore(store, 16, time.Minute)
	ctx := context.Background()

	c.SetLLM(ctx, "q", nil, "v")
	store.mu.Lock()
	store.data = map[string][]byte{}
	store.mu.Unlock()

	got, ok := c.GetLLM(ctx, "q", nil)
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestLRUEvictsOldest(t *testing.T) {
	l := newLRU(2, time.Minute)
	ctx := context.Background()

	l.Set(ctx, "a", []byte("1"), 0)
	l.Set(ctx, "b", []byte("2"), 0)
	l.Get(ctx, "a") // refresh a
	l.Set(ctx, "c", []byte("3"), 0)

	_, ok := l.Get(ctx, "b")
	assert.False(t, ok)
	_, ok = l.Get(ctx, "a")
	assert.True(t, ok)
	_, ok = l.Get(ctx, "c")
	assert.True(t, ok)
}

func TestLRUExpiry(t *testing.T) {
	l := newLRU(4, time.Minute)
	ctx := context.Background()

	l.Set(ctx, "a", []byte("1"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	_, ok := l.Get(ctx, "a")
	assert.False(t, ok)
}

func TestStatsCountsPerNamespace(t *testing.T) {
	c := NewWithStore(newMemStore(), 16, time.Minute)
	ctx := context.Background()

	c.SetSearch(ctx, "삼성화재 치료비 보장", map[string]string{"k": "5"}, []schema.Passage{{DocID: "d"}})
	c.SetSearch(ctx, "현대해상 휴대품 손해", map[string]string{"k": "5"}, []schema.Passage{{DocID: "d"}})
	c.SetEmbedding(ctx, "text-embedding-3-small", "여행보험", []float32{0.1})
	c.SetLLM(ctx, "여행보험 면책", nil, "답변")

	stats := c.Stats(ctx)
	assert.Equal(t, int64(2), stats[KindSearch])
	assert.Equal(t, int64(1), stats[KindEmbeddings])
	assert.Equal(t, int64(1), stats[KindLLM])
	assert.Equal(t, int64(0), stats[KindSession])
}
