package embedding

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"rahhal_engine/internal/domain"
)

// Cached memoizes vectors by normalized text. Cache errors are treated as
// misses; a broken cache never fails an embedding call.
type Cached struct {
	inner domain.Embedder
	cache domain.Cache
	ttl   time.Duration
}

func NewCached(inner domain.Embedder, cache domain.Cache, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: cache, ttl: ttl}
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	norm := strings.ToLower(strings.TrimSpace(text))
	if norm == "" {
		return nil, nil
	}
	key := cacheKey(norm)

	var vec []float32
	if ok, _ := c.cache.Get(ctx, key, &vec); ok && len(vec) > 0 {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil || vec == nil {
		return nil, err
	}
	_ = c.cache.Set(ctx, key, vec, int(c.ttl.Seconds()))
	return vec, nil
}

func cacheKey(norm string) string {
	sum := sha1.Sum([]byte(norm))
	return "embed:" + hex.EncodeToString(sum[:])
}
