// Package jobs contains the scheduled maintenance jobs run by the worker.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nexus-academicus/1board/internal/domain/leaderboard"
	"github.com/nexus-academicus/1board/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// Recomputes standings from storage and writes the snapshot to the cache so
// API reads stay warm between invalidations.
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotSource builds a fresh leaderboard snapshot.
type SnapshotSource interface {
	Build(ctx context.Context) (*leaderboard.Snapshot, error)
}

// RebuildStats contains statistics from a rebuild run.
type RebuildStats struct {
	StartedAt   time.Time
	Duration    time.Duration
	RankedCount int
	Leader      string
}

// RebuildLeaderboardJob rebuilds the cached leaderboard.
type RebuildLeaderboardJob struct {
	source SnapshotSource
	cache  leaderboard.Cache
	log    *logger.Logger

	lastStats atomic.Pointer[RebuildStats]
}

// NewRebuildLeaderboardJob creates a new rebuild leaderboard job.
func NewRebuildLeaderboardJob(source SnapshotSource, cache leaderboard.Cache, log *logger.Logger) *RebuildLeaderboardJob {
	if log == nil {
		log = logger.Nop()
	}
	return &RebuildLeaderboardJob{
		source: source,
		cache:  cache,
		log:    log.With(logger.JobName("rebuild_leaderboard")),
	}
}

// Name implements scheduler.Job.
func (j *RebuildLeaderboardJob) Name() string { return "rebuild_leaderboard" }

// Description implements scheduler.Job.
func (j *RebuildLeaderboardJob) Description() string {
	return "Recompute the ranked leaderboard and store it in the cache"
}

// Run implements scheduler.Job.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	started := time.Now()

	generation, err := j.cache.Generation(ctx)
	if err != nil {
		return fmt.Errorf("rebuild_leaderboard: generation: %w", err)
	}

	snap, err := j.source.Build(ctx)
	if err != nil {
		return fmt.Errorf("rebuild_leaderboard: build: %w", err)
	}
	if err := j.cache.SetSnapshot(ctx, snap, generation); err != nil {
		if errors.Is(err, leaderboard.ErrStaleSnapshot) {
			j.log.Info("standings changed during rebuild, skipped store")
			return nil
		}
		return fmt.Errorf("rebuild_leaderboard: store: %w", err)
	}

	stats := &RebuildStats{
		StartedAt:   started,
		Duration:    time.Since(started),
		RankedCount: snap.Count(),
	}
	if !snap.IsEmpty() {
		stats.Leader = string(snap.Entries[0].Identity)
	}
	j.lastStats.Store(stats)

	j.log.Info("leaderboard rebuilt",
		logger.Int("ranked", stats.RankedCount),
		logger.Latency(stats.Duration),
	)
	return nil
}

// LastStats returns the stats of the last successful run, or nil.
func (j *RebuildLeaderboardJob) LastStats() *RebuildStats {
	return j.lastStats.Load()
}
