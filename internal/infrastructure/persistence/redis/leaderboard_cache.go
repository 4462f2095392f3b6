package redis

import (
	"context"
	"errors"
	"time"

	"github.com/cptrack/cptrack-hub/internal/application/leaderboard"
)

// LeaderboardCache stores serialized leaderboard pages under per-page keys.
// It implements leaderboard.Cache.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a leaderboard cache on top of a Cache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// GetPage returns a cached leaderboard page, or (nil, nil) on a miss so
// callers fall through to a live computation.
func (c *LeaderboardCache) GetPage(ctx context.Context, cohort string, page, limit int) (*leaderboard.Page, error) {
	var p leaderboard.Page
	err := c.cache.Get(ctx, LeaderboardPageKey(cohort, page, limit), &p)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// SetPage stores a leaderboard page with the given TTL.
func (c *LeaderboardCache) SetPage(ctx context.Context, cohort string, page, limit int, p *leaderboard.Page, ttl time.Duration) error {
	return c.cache.Set(ctx, LeaderboardPageKey(cohort, page, limit), p, ttl)
}

// Invalidate drops every cached page for a cohort. The empty cohort drops
// all cached pages, per-cohort ones included.
func (c *LeaderboardCache) Invalidate(ctx context.Context, cohort string) error {
	if cohort == "" {
		return c.cache.DeleteByPattern(ctx, PrefixLeaderboard+"*")
	}
	return c.cache.DeleteByPattern(ctx, PrefixLeaderboard+cohort+":*")
}
