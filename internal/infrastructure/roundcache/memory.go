package roundcache

import (
	"context"
	"time"

	"github.com/riskibarqy/fixture-scout/internal/domain/competition"
	basecache "github.com/riskibarqy/fixture-scout/internal/platform/cache"
	"github.com/riskibarqy/fixture-scout/internal/usecase"
)

const keyPrefix = "round:"

// MemoryCache keeps selected rounds in process. Expired entries are dropped
// by the read that finds them.
type MemoryCache struct {
	store *basecache.Store[usecase.CachedRound]
}

func NewMemoryCache(ttl time.Duration, opts ...basecache.Option) *MemoryCache {
	return &MemoryCache{store: basecache.NewStore[usecase.CachedRound](ttl, opts...)}
}

func (c *MemoryCache) Get(ctx context.Context, code string) (usecase.CachedRound, bool, error) {
	entry, ok := c.store.Get(ctx, key(code))
	return entry, ok, nil
}

func (c *MemoryCache) Set(ctx context.Context, entry usecase.CachedRound) error {
	c.store.Set(ctx, key(entry.Competition), entry)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, code string) error {
	c.store.Delete(ctx, key(code))
	return nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.store.DeletePrefix(ctx, keyPrefix)
	return nil
}

func (c *MemoryCache) Len() int {
	return c.store.Len()
}

func key(code string) string {
	return keyPrefix + competition.NormalizeCode(code)
}
