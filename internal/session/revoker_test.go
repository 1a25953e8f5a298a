package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRevokerBackends(t *testing.T) {
	ctx := context.Background()

	r, err := NewRevoker(ctx, RevokerConfig{})
	if err != nil {
		t.Fatalf("default backend: %v", err)
	}
	if _, ok := r.(NoopRevoker); !ok {
		t.Errorf("default backend = %T, want NoopRevoker", r)
	}

	r, err = NewRevoker(ctx, RevokerConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := r.(*MemoryRevoker); !ok {
		t.Errorf("memory backend = %T", r)
	}

	if _, err := NewRevoker(ctx, RevokerConfig{Backend: "redis"}); err == nil {
		t.Error("expected error for redis without address")
	}
	if _, err := NewRevoker(ctx, RevokerConfig{Backend: "etcd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNoopRevokerNeverRevokes(t *testing.T) {
	ctx := context.Background()
	r := NoopRevoker{}
	if err := r.Revoke(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	revoked, err := r.IsRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Errorf("IsRevoked = %v, %v; want false, nil", revoked, err)
	}
}

func TestMemoryRevoker(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRevoker()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	if err := r.Revoke(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked, _ := r.IsRevoked(ctx, "jti-1"); !revoked {
		t.Error("expected jti-1 to be revoked")
	}
	if revoked, _ := r.IsRevoked(ctx, "jti-2"); revoked {
		t.Error("did not expect jti-2 to be revoked")
	}

	// Zero TTL is a no-op: the token has already expired.
	if err := r.Revoke(ctx, "jti-3", 0); err != nil {
		t.Fatalf("Revoke zero ttl: %v", err)
	}
	if revoked, _ := r.IsRevoked(ctx, "jti-3"); revoked {
		t.Error("zero-ttl revoke should not be recorded")
	}

	now = now.Add(2 * time.Hour)
	if revoked, _ := r.IsRevoked(ctx, "jti-1"); revoked {
		t.Error("expected revocation to lapse after ttl")
	}
	if len(r.ids) != 0 {
		t.Errorf("expected expired entry to be dropped, have %d", len(r.ids))
	}
}

func TestRedisRevoker(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	r, err := NewRevoker(ctx, RevokerConfig{Backend: "redis", RedisAddr: srv.Addr()})
	if err != nil {
		t.Fatalf("NewRevoker: %v", err)
	}
	t.Cleanup(func() { r.Close() })

	if err := r.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	revoked, err := r.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if !revoked {
		t.Error("expected jti-1 to be revoked")
	}
	if ttl := srv.TTL(revocationKey("jti-1")); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}

	srv.FastForward(2 * time.Minute)
	revoked, err = r.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked after expiry: %v", err)
	}
	if revoked {
		t.Error("expected revocation to expire with the key")
	}
}

func TestRedisRevokerUnreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRevoker(ctx, RevokerConfig{Backend: "redis", RedisAddr: addr}); err == nil {
		t.Error("expected ping failure against a closed server")
	}
}
