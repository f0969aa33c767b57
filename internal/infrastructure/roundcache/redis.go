package roundcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/fixture-scout/internal/usecase"
)

const clearScanCount = 200

// RedisCache shares selected rounds between service instances. Redis expires
// keys itself, so a read after the TTL is a plain miss.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	namespace string
}

func NewRedisCache(client *redis.Client, ttl time.Duration, namespace string) *RedisCache {
	namespace = strings.Trim(strings.TrimSpace(namespace), ":")
	if namespace == "" {
		namespace = "fixture-scout"
	}
	return &RedisCache{
		client:    client,
		ttl:       ttl,
		namespace: namespace,
	}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, crerr.Wrap(err, "parse REDIS_URL")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, crerr.Wrapf(err, "ping redis %s", opts.Addr)
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, code string) (usecase.CachedRound, bool, error) {
	raw, err := c.client.Get(ctx, c.key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return usecase.CachedRound{}, false, nil
	}
	if err != nil {
		return usecase.CachedRound{}, false, fmt.Errorf("redis get round: %w", err)
	}

	var entry usecase.CachedRound
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		// undecodable payloads are dropped so the next discovery rewrites them
		_ = c.client.Del(ctx, c.key(code)).Err()
		return usecase.CachedRound{}, false, fmt.Errorf("decode cached round: %w", err)
	}
	return entry, true, nil
}

func (c *RedisCache) Set(ctx context.Context, entry usecase.CachedRound) error {
	raw, err := sonic.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cached round: %w", err)
	}
	if err := c.client.Set(ctx, c.key(entry.Competition), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set round: %w", err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, c.key(code)).Err(); err != nil {
		return fmt.Errorf("redis delete round: %w", err)
	}
	return nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	pattern := c.namespace + ":" + keyPrefix + "*"
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, clearScanCount).Result()
		if err != nil {
			return fmt.Errorf("redis scan rounds: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete rounds: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisCache) key(code string) string {
	return c.namespace + ":" + key(code)
}
