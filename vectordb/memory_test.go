package vectordb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inscope-ai/ragcore/schema"
)

func TestMemorySearchOrdersBySimilarity(t *testing.T) {
	s := NewMemory()
	s.Add(schema.Passage{DocID: "a"}, []float32{1, 0})
	s.Add(schema.Passage{DocID: "b"}, []float32{0, 1})
	s.Add(schema.Passage{DocID: "c"}, []float32{0.9, 0.1})

	got, err := s.Search(context.Background(), []float32{1, 0}, SearchOptions{TopK: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].DocID)
	assert.Equal(t, "c", got[1].DocID)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestMemorySearchThreshold(t *testing.T) {
	s := NewMemory()
	s.Add(schema.Passage{DocID: "a"}, []float32{1, 0})
	s.Add(schema.Passage{DocID: "b"}, []float32{0, 1})

	got, err := s.Search(context.Background(), []float32{1, 0}, SearchOptions{TopK: 10, Threshold: 0.5})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].DocID)
}

func TestCosineDegenerate(t *testing.T) {
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 0}))
}
