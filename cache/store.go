package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inscope-ai/ragcore/common/logger"
	"github.com/inscope-ai/ragcore/config"
	"github.com/inscope-ai/ragcore/metrics"
	"github.com/inscope-ai/ragcore/ragerr"
)

// Store is the shared cross-turn cache backend. Implementations must be safe
// for concurrent use and degrade to miss/no-op when unreachable.
//
// Known gap, kept deliberately: there is no single-flight de-duplication of
// concurrent identical in-flight requests; two simultaneous misses on the
// same canonical key both recompute.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// Count returns the number of live entries whose key starts with prefix,
	// or 0 when the store cannot tell.
	Count(ctx context.Context, prefix string) int64
}

// RedisStore backs Store with Redis; TTLs are enforced by the store itself.
// Every failure degrades silently into a miss or "not stored".
type RedisStore struct {
	rc     *redis.Client
	opTime time.Duration
}

// NewRedisStore dials Redis with hard connect/socket timeouts. The store is
// usable even if Redis is down; operations simply miss until it returns.
func NewRedisStore(cfg config.CacheConfig) *RedisStore {
	opTime := time.Duration(cfg.ConnectTimeoutMs) * time.Millisecond
	if opTime <= 0 {
		opTime = 500 * time.Millisecond
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  opTime,
		ReadTimeout:  opTime,
		WriteTimeout: opTime,
	})
	return &RedisStore{rc: rc, opTime: opTime}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, s.opTime)
	defer cancel()
	val, err := s.rc.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debugf("cache: %v", ragerr.E(ragerr.KindCacheUnavailable, err))
		return nil, false
	}
	return val, true
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, s.opTime)
	defer cancel()
	if err := s.rc.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Debugf("cache: %v", ragerr.E(ragerr.KindCacheUnavailable, err))
	}
}

func (s *RedisStore) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, s.opTime)
	defer cancel()
	if err := s.rc.Del(ctx, key).Err(); err != nil {
		logger.Debugf("cache: %v", ragerr.E(ragerr.KindCacheUnavailable, err))
	}
}

func (s *RedisStore) Count(ctx context.Context, prefix string) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.opTime)
	defer cancel()
	var total int64
	iter := s.rc.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		total++
	}
	if err := iter.Err(); err != nil {
		logger.Debugf("cache: %v", ragerr.E(ragerr.KindCacheUnavailable, err))
		return 0
	}
	return total
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error { return s.rc.Close() }

// NopStore misses on every read and drops every write. Used when no Redis is
// configured and as the degraded mode stand-in for tests.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool)         { return nil, false }
func (NopStore) Set(context.Context, string, []byte, time.Duration) {}
func (NopStore) Delete(context.Context, string)                     {}
func (NopStore) Count(context.Context, string) int64                { return 0 }

var _ Store = (*RedisStore)(nil)
var _ Store = NopStore{}

func observe(kind string, hit bool) {
	if hit {
		metrics.IncCacheHit(kind)
	} else {
		metrics.IncCacheMiss(kind)
	}
}
