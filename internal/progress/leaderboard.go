package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/audit-rank/auditrank/internal/platform/cache"
)

const leaderboardKey = "auditrank:leaderboard"

// Leaderboard serves ranking queries. Experience scores are mirrored into a
// Redis sorted set on every progress update; reads hit the sorted set first
// and fall back to the store when the cache is absent, cold, or failing.
type Leaderboard struct {
	store Store
	cache *cache.Cache
}

// NewLeaderboard creates a leaderboard over the store. cache may be nil, in
// which case every read goes to the store.
func NewLeaderboard(store Store, c *cache.Cache) *Leaderboard {
	return &Leaderboard{store: store, cache: c}
}

// RecordProgress persists a user's progression and mirrors the new
// experience into the cache. The cache write is best effort.
func (l *Leaderboard) RecordProgress(ctx context.Context, username string, p Progress) error {
	if err := l.store.UpdateProgress(username, p); err != nil {
		return err
	}

	if l.cache != nil {
		err := l.cache.Client.ZAdd(ctx, leaderboardKey, redis.Z{
			Score:  p.Experience,
			Member: username,
		}).Err()
		if err != nil {
			slog.Warn("leaderboard cache update failed", "user", username, "error", err)
		}
	}

	return nil
}

// Top returns the highest-experience users. A cache hit serves usernames and
// scores from the sorted set, with roles and levels filled from the store;
// any cache or fill failure falls back to a direct store query.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	if l.cache != nil {
		entries, err := l.topFromCache(ctx, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			slog.Warn("leaderboard cache read failed", "error", err)
		}
	}

	return l.store.TopUsers(limit)
}

func (l *Leaderboard) topFromCache(ctx context.Context, limit int) ([]Entry, error) {
	ranked, err := l.cache.Client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading leaderboard set: %w", err)
	}

	entries := make([]Entry, 0, len(ranked))
	for _, z := range ranked {
		username, ok := z.Member.(string)
		if !ok {
			continue
		}
		user, err := l.store.GetUser(username)
		if err != nil {
			return nil, fmt.Errorf("filling entry for %s: %w", username, err)
		}
		entries = append(entries, Entry{
			Username:   username,
			Role:       user.Role,
			Level:      user.Level,
			Experience: z.Score,
		})
	}
	return entries, nil
}

// Rebuild repopulates the sorted set from the store, for recovery after a
// cache flush. A nil cache makes this a no-op.
func (l *Leaderboard) Rebuild(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}

	users, err := l.store.Users()
	if err != nil {
		return fmt.Errorf("loading users: %w", err)
	}

	members := make([]redis.Z, 0, len(users))
	for _, u := range users {
		members = append(members, redis.Z{Score: u.Experience, Member: u.Username})
	}
	if len(members) == 0 {
		return nil
	}

	if err := l.cache.Client.ZAdd(ctx, leaderboardKey, members...).Err(); err != nil {
		return fmt.Errorf("rebuilding leaderboard set: %w", err)
	}
	return nil
}
