package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker tracks revoked session ids (the token's jti) until the token
// would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Close() error
}

// RevokerConfig selects a revocation backend.
type RevokerConfig struct {
	Backend       string // none, memory, redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewRevoker builds the configured backend. "none" (or empty) disables
// revocation, so a logged-out token stays valid until it expires.
func NewRevoker(ctx context.Context, cfg RevokerConfig) (Revoker, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return NoopRevoker{}, nil
	case "memory":
		return NewMemoryRevoker(), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis revoker: address is required")
		}
		r := NewRedisRevoker(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}))
		if err := r.client.Ping(ctx).Err(); err != nil {
			r.Close()
			return nil, fmt.Errorf("redis revoker: ping %s: %w", cfg.RedisAddr, err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown revocation backend %q (want none, memory or redis)", cfg.Backend)
	}
}

// NoopRevoker never revokes anything.
type NoopRevoker struct{}

func (NoopRevoker) Revoke(context.Context, string, time.Duration) error { return nil }
func (NoopRevoker) IsRevoked(context.Context, string) (bool, error)     { return false, nil }
func (NoopRevoker) Close() error                                        { return nil }

// MemoryRevoker keeps revoked ids in-process (single instance only).
type MemoryRevoker struct {
	mu  sync.Mutex
	ids map[string]time.Time
	now func() time.Time
}

// NewMemoryRevoker builds an empty in-memory revoker.
func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		ids: make(map[string]time.Time),
		now: time.Now,
	}
}

// Revoke marks jti as revoked for ttl. Expired entries are swept on write.
func (r *MemoryRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 || jti == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, until := range r.ids {
		if now.After(until) {
			delete(r.ids, id)
		}
	}
	r.ids[jti] = now.Add(ttl)
	return nil
}

// IsRevoked reports whether jti is currently revoked.
func (r *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.ids[jti]
	if !ok {
		return false, nil
	}
	if r.now().After(until) {
		delete(r.ids, jti)
		return false, nil
	}
	return true, nil
}

func (r *MemoryRevoker) Close() error { return nil }

// RedisRevoker stores revoked ids in Redis with a TTL, so every instance
// behind a load balancer sees the same list.
type RedisRevoker struct {
	client *redis.Client
}

// NewRedisRevoker wraps an existing client.
func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 || jti == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.client.Set(ctx, revocationKey(jti), "1", ttl).Err()
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	n, err := r.client.Exists(ctx, revocationKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisRevoker) Close() error {
	return r.client.Close()
}

func revocationKey(jti string) string {
	return "clinicsite:revoked-session:" + jti
}
