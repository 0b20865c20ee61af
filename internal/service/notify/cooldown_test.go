package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"InvestAgent/pkg/cache"
)

func TestCacheCooldownBlocksWithinWindow(t *testing.T) {
	g := NewCacheCooldown(cache.NewMemoryCache())
	ctx := context.Background()

	if !g.TryAcquire(ctx, "r1", time.Minute) {
		t.Fatalf("first acquire must succeed")
	}
	if g.TryAcquire(ctx, "r1", time.Minute) {
		t.Fatalf("second acquire within cooldown must fail")
	}
	// Independent rules do not share cooldowns.
	if !g.TryAcquire(ctx, "r2", time.Minute) {
		t.Fatalf("other rule must not be blocked")
	}
}

func TestCacheCooldownReleasesAfterWindow(t *testing.T) {
	g := NewCacheCooldown(cache.NewMemoryCache())
	ctx := context.Background()

	if !g.TryAcquire(ctx, "r1", 10*time.Millisecond) {
		t.Fatalf("first acquire must succeed")
	}
	time.Sleep(20 * time.Millisecond)
	if !g.TryAcquire(ctx, "r1", time.Minute) {
		t.Fatalf("expired cooldown must release")
	}
}

type failingLockCache struct {
	cache.Service
}

func (failingLockCache) TryLock(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func TestCacheCooldownDeliversOnCacheFailure(t *testing.T) {
	g := NewCacheCooldown(failingLockCache{})
	if !g.TryAcquire(context.Background(), "r1", time.Minute) {
		t.Fatalf("cache failure must not drop the alert")
	}
}
