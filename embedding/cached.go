package embedding

import (
	"context"

	"github.com/inscope-ai/ragcore/cache"
	"github.com/inscope-ai/ragcore/ragerr"
)

// CachedProvider wraps a Provider with the shared embedding cache. Texts that
// hit skip the provider entirely; only misses are batched through.
type CachedProvider struct {
	inner Provider
	cache *cache.Cache
}

// NewCached wraps inner with c. A nil cache returns inner's results uncached.
func NewCached(inner Provider, c *cache.Cache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: c}
}

func (p *CachedProvider) Model() string { return p.inner.Model() }

func (p *CachedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if p.cache == nil {
		return p.inner.Embed(ctx, texts)
	}
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := p.cache.GetEmbedding(ctx, p.inner.Model(), text); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}
	fresh, err := p.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, ragerr.Errorf(ragerr.KindRetrieval,
			"embedding provider returned %d vectors for %d texts", len(fresh), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = fresh[j]
		p.cache.SetEmbedding(ctx, p.inner.Model(), texts[i], fresh[j])
	}
	return out, nil
}

var _ Provider = (*CachedProvider)(nil)
