package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/inscope-ai/ragcore/common/logger"
	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/metrics"
	"github.com/inscope-ai/ragcore/schema"
)

// Cache is the typed facade over the two-tier (L1 + shared store) cache.
// All question-keyed namespaces go through the Korean normalizer first, so
// surface variants of the same question share one entry.
type Cache struct {
	store Store
	l1    *lru
	norm  *Normalizer
	ttl   time.Duration
}

// New builds a Cache from config. An empty redis address yields a Cache that
// only uses the in-process L1.
func New(cfg config.CacheConfig) *Cache {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	var store Store = NopStore{}
	if cfg.RedisAddr != "" {
		store = NewRedisStore(cfg)
	}
	return &Cache{
		store: store,
		l1:    newLRU(cfg.L1Size, ttl),
		norm:  NewNormalizer(),
		ttl:   ttl,
	}
}

// NewWithStore wires an explicit backend, mainly for tests.
func NewWithStore(store Store, l1Size int, ttl time.Duration) *Cache {
	if store == nil {
		store = NopStore{}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{store: store, l1: newLRU(l1Size, ttl), norm: NewNormalizer(), ttl: ttl}
}

// Normalize exposes the question normalizer so callers can log the canonical
// form used for keying.
func (c *Cache) Normalize(q string) string { return c.norm.Normalize(q) }

type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

func (c *Cache) get(ctx context.Context, kind, key string, out any) bool {
	raw, ok := c.l1.Get(ctx, key)
	if !ok {
		raw, ok = c.store.Get(ctx, key)
		if ok {
			c.l1.Set(ctx, key, raw, c.ttl)
		}
	}
	observe(kind, ok)
	if !ok {
		return false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Debugf("cache: bad envelope for %s: %v", key, err)
		return false
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		logger.Debugf("cache: bad payload for %s: %v", key, err)
		return false
	}
	return true
}

func (c *Cache) set(ctx context.Context, kind, key string, val any) {
	payload, err := json.Marshal(val)
	if err != nil {
		logger.Debugf("cache: marshal %s: %v", key, err)
		return
	}
	raw, err := json.Marshal(envelope{StoredAt: time.Now(), Payload: payload})
	if err != nil {
		return
	}
	c.l1.Set(ctx, key, raw, c.ttl)
	c.store.Set(ctx, key, raw, c.ttl)
	metrics.IncCacheWrite(kind)
}

// GetSearch returns cached fused passages for a question, if present. The
// extra params must match those used on Set (k value, alpha, filters).
func (c *Cache) GetSearch(ctx context.Context, question string, extra map[string]string) ([]schema.Passage, bool) {
	key := Key(KindSearch, c.norm.Normalize(question), extra)
	var passages []schema.Passage
	if !c.get(ctx, KindSearch, key, &passages) {
		return nil, false
	}
	return passages, true
}

// SetSearch stores fused passages under the normalized question.
func (c *Cache) SetSearch(ctx context.Context, question string, extra map[string]string, passages []schema.Passage) {
	key := Key(KindSearch, c.norm.Normalize(question), extra)
	c.set(ctx, KindSearch, key, passages)
}

// GetEmbedding returns a cached embedding vector for a text.
func (c *Cache) GetEmbedding(ctx context.Context, model, text string) ([]float32, bool) {
	key := Key(KindEmbeddings, text, map[string]string{"model": model})
	var vec []float32
	if !c.get(ctx, KindEmbeddings, key, &vec) {
		return nil, false
	}
	return vec, true
}

// SetEmbedding stores an embedding vector keyed by raw text and model.
// Embedding material is not question-normalized: the vector must correspond
// to the exact text sent to the provider.
func (c *Cache) SetEmbedding(ctx context.Context, model, text string, vec []float32) {
	key := Key(KindEmbeddings, text, map[string]string{"model": model})
	c.set(ctx, KindEmbeddings, key, vec)
}

// GetLLM returns a cached completion for a normalized question + prompt kind.
func (c *Cache) GetLLM(ctx context.Context, question string, extra map[string]string) (string, bool) {
	key := Key(KindLLM, c.norm.Normalize(question), extra)
	var resp string
	if !c.get(ctx, KindLLM, key, &resp) {
		return "", false
	}
	return resp, true
}

// SetLLM stores a completion keyed by the normalized question.
func (c *Cache) SetLLM(ctx context.Context, question string, extra map[string]string, resp string) {
	key := Key(KindLLM, c.norm.Normalize(question), extra)
	c.set(ctx, KindLLM, key, resp)
}

// Invalidate removes one entry from both tiers.
func (c *Cache) Invalidate(ctx context.Context, kind, material string, extra map[string]string) {
	key := Key(kind, material, extra)
	c.l1.Delete(ctx, key)
	c.store.Delete(ctx, key)
}

// Stats reports the live entry count per namespace in the shared store and
// pushes each count to the entry gauge.
func (c *Cache) Stats(ctx context.Context) map[string]int64 {
	stats := make(map[string]int64, 4)
	for _, kind := range []string{KindEmbeddings, KindSearch, KindLLM, KindSession} {
		n := c.store.Count(ctx, kind+":")
		stats[kind] = n
		metrics.SetCacheEntries(kind, n)
	}
	return stats
}
