package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inscope-ai/ragcore/cache"
)

type fakeProvider struct {
	calls   int
	batches [][]string
}

func (f *fakeProvider) Model() string { return "fake-embed" }

func (f *fakeProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len([]rune(t)))}
	}
	return out, nil
}

func TestCachedEmbedOnlyMissesHitProvider(t *testing.T) {
	fake := &fakeProvider{}
	c := cache.NewWithStore(nil, 32, time.Minute)
	p := NewCached(fake, c)
	ctx := context.Background()

	first, err := p.Embed(ctx, []string{"여행보험", "치료비 한도"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, fake.calls)

	second, err := p.Embed(ctx, []string{"여행보험", "면책 사유"})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, 2, fake.calls)
	// Only the miss goes to the provider.
	assert.Equal(t, []string{"면책 사유"}, fake.batches[1])
	assert.Equal(t, first[0], second[0])
}

type truncatingProvider struct{}

func (truncatingProvider) Model() string { return "truncating" }

func (truncatingProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)-1), nil
}

func TestCachedEmbedShortBatchIsError(t *testing.T) {
	c := cache.NewWithStore(nil, 32, time.Minute)
	p := NewCached(truncatingProvider{}, c)

	_, err := p.Embed(context.Background(), []string{"여행보험", "치료비 한도"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 vectors for 2 texts")
}

func TestCachedEmbedNilCachePassesThrough(t *testing.T) {
	fake := &fakeProvider{}
	p := NewCached(fake, nil)

	out, err := p.Embed(context.Background(), []string{"보장"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2}}, out)
}
