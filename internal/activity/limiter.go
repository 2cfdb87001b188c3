package activity

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter grants at most one Allow per key within window. Reset gives a slot
// back before the window ends.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

type MemoryLimiter struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, window time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.expires[key]; ok && now.Before(until) {
		return false, nil
	}
	l.expires[key] = now.Add(window)

	// Opportunistic sweep so the map does not grow with departed salesmen.
	for k, until := range l.expires {
		if !now.Before(until) {
			delete(l.expires, k)
		}
	}
	return true, nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.expires, key)
	l.mu.Unlock()
	return nil
}

const redisKeyPrefix = "leadwatch:alert:"

// RedisLimiter shares alert cooldowns across replicas with SET NX PX.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	return l.client.SetNX(ctx, redisKeyPrefix+key, time.Now().Unix(), window).Result()
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, redisKeyPrefix+key).Err()
}
