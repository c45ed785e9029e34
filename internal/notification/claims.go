package notification

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// RedisClaimStore records sent notifications so a redelivered event does not
// alert the same responder twice.
type RedisClaimStore struct {
	redis  *redis.Client
	prefix string
}

func NewRedisClaimStore(client *redis.Client) *RedisClaimStore {
	return &RedisClaimStore{redis: client, prefix: "notif:"}
}

// Claim atomically reserves key. It reports false if the key already exists.
func (s *RedisClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, s.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

// Release drops a claim so a later delivery can retry it.
func (s *RedisClaimStore) Release(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// MemoryClaimStore keeps claims in process memory. Claims are lost on restart
// and are not shared between replicas.
type MemoryClaimStore struct {
	cache *gocache.Cache
}

func NewMemoryClaimStore(cleanupInterval time.Duration) *MemoryClaimStore {
	return &MemoryClaimStore{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (s *MemoryClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	// Add fails if the key is present and unexpired.
	if err := s.cache.Add(key, time.Now().UTC(), ttl); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *MemoryClaimStore) Release(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// ConnectRedis parses url and pings the server. An empty url returns nil, nil.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
