package notify

import (
	"context"
	"time"

	"InvestAgent/pkg/cache"
)

// CacheCooldown guards alert notifications with a lock held for the rule's
// cooldown. Backed by Redis it is distributed, so multiple instances do not
// double-notify; backed by the in-memory cache it is a single-instance guard.
type CacheCooldown struct {
	cache cache.Service
}

func NewCacheCooldown(c cache.Service) *CacheCooldown {
	return &CacheCooldown{cache: c}
}

func (g *CacheCooldown) TryAcquire(ctx context.Context, ruleID string, d time.Duration) bool {
	ok, err := g.cache.TryLock(ctx, "alert_cooldown:"+ruleID, d)
	if err != nil {
		// On cache failure, prefer delivering over dropping.
		return true
	}
	return ok
}
