package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nexus-academicus/1board/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// Stores the ranked snapshot as one JSON value next to a generation counter.
// Invalidate bumps the counter; SetSnapshot writes under WATCH on it, so a
// snapshot built before an invalidation is never stored after it.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements leaderboard.Cache on Redis.
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewLeaderboardCache creates a LeaderboardCache. A non-positive ttl falls
// back to TTLLeaderboardCache.
func NewLeaderboardCache(cache *Cache, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = TTLLeaderboardCache
	}
	return &LeaderboardCache{cache: cache, ttl: ttl}
}

func snapshotKey() string   { return LeaderboardKey("snapshot") }
func generationKey() string { return LeaderboardKey("generation") }

// GetSnapshot implements leaderboard.Cache.
func (l *LeaderboardCache) GetSnapshot(ctx context.Context) (*leaderboard.Snapshot, error) {
	var snap leaderboard.Snapshot
	if err := l.cache.Get(ctx, snapshotKey(), &snap); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, leaderboard.ErrCacheMiss
		}
		return nil, fmt.Errorf("leaderboard cache: get: %w", err)
	}
	snap.RebuildIndex()
	return &snap, nil
}

// Generation implements leaderboard.Cache. A missing counter reads as zero.
func (l *LeaderboardCache) Generation(ctx context.Context) (int64, error) {
	gen, err := readGeneration(ctx, l.cache.Client())
	if err != nil {
		return 0, fmt.Errorf("leaderboard cache: generation: %w", err)
	}
	return gen, nil
}

// SetSnapshot implements leaderboard.Cache.
func (l *LeaderboardCache) SetSnapshot(ctx context.Context, snap *leaderboard.Snapshot, generation int64) error {
	if snap == nil {
		return errors.New("leaderboard cache: nil snapshot")
	}

	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	err = l.cache.Client().Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != generation {
			return leaderboard.ErrStaleSnapshot
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, snapshotKey(), data, l.ttl)
			return nil
		})
		return err
	}, generationKey())

	switch {
	case err == nil:
		return nil
	case errors.Is(err, leaderboard.ErrStaleSnapshot), errors.Is(err, redis.TxFailedErr):
		return leaderboard.ErrStaleSnapshot
	default:
		return fmt.Errorf("leaderboard cache: set: %w", err)
	}
}

// Invalidate implements leaderboard.Cache.
func (l *LeaderboardCache) Invalidate(ctx context.Context) error {
	_, err := l.cache.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey())
		pipe.Del(ctx, snapshotKey())
		return nil
	})
	if err != nil {
		return fmt.Errorf("leaderboard cache: invalidate: %w", err)
	}
	return nil
}

var _ leaderboard.Cache = (*LeaderboardCache)(nil)

// ─────────────────────────────────────────────────────────────────────────────
// Encoding
// ─────────────────────────────────────────────────────────────────────────────

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, c getter) (int64, error) {
	gen, err := c.Get(ctx, generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func encodeSnapshot(snap *leaderboard.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	return data, nil
}
