package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LRUGuard claims idempotency keys in process memory. Claims are lost on
// restart and expire after the cache ttl.
type LRUGuard struct {
	seen *LRUCache[struct{}]
}

func NewLRUGuard(maxKeys int, ttl time.Duration) *LRUGuard {
	return &LRUGuard{seen: NewLRUCache[struct{}](maxKeys, ttl)}
}

func (g *LRUGuard) Claim(_ context.Context, key string) (bool, error) {
	return g.seen.SetIfAbsent(key, struct{}{}), nil
}

func (g *LRUGuard) Release(_ context.Context, key string) error {
	g.seen.Delete(key)
	return nil
}

// Cache exposes the backing cache so a Manager can clean it.
func (g *LRUGuard) Cache() *LRUCache[struct{}] { return g.seen }

const redisKeyPrefix = "zapledger:idem:"

// RedisGuard claims idempotency keys with SET NX, so every replica sees
// the same claims.
type RedisGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

// RedisOptions configures NewRedisGuard.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewRedisGuard(opts RedisOptions) *RedisGuard {
	return &RedisGuard{
		rdb: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		ttl: opts.TTL,
	}
}

// Ping checks the connection.
func (g *RedisGuard) Ping(ctx context.Context) error {
	if err := g.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, redisKeyPrefix+key, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.rdb.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (g *RedisGuard) Close() error {
	return g.rdb.Close()
}
