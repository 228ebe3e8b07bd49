// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexus-academicus/1board/internal/domain/leaderboard"
	"github.com/nexus-academicus/1board/internal/domain/student"
	"github.com/nexus-academicus/1board/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Returns the ranked standings, served from the cached snapshot when present.
// Search filters the ranked list without re-ranking it.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery contains the request parameters.
type GetLeaderboardQuery struct {
	// Search is a case-insensitive name substring; empty returns everyone.
	Search string

	// Limit caps the number of entries (0 = no limit).
	Limit int
}

// Validate validates the query.
func (q GetLeaderboardQuery) Validate() error {
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	return nil
}

// GetLeaderboardResult contains the standings.
type GetLeaderboardResult struct {
	Entries     []leaderboard.Entry `json:"entries"`
	Total       int                 `json:"total"`
	GeneratedAt time.Time           `json:"generatedAt"`
	FromCache   bool                `json:"fromCache"`
}

// GetLeaderboardHandler handles GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	standings *StandingsReader
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler.
func NewGetLeaderboardHandler(standings *StandingsReader) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{standings: standings}
}

// Handle executes the query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	snapshot, fromCache, err := h.standings.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_leaderboard: %w", err)
	}

	entries := snapshot.Search(q.Search)
	total := len(entries)
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}

	return &GetLeaderboardResult{
		Entries:     entries,
		Total:       total,
		GeneratedAt: snapshot.GeneratedAt,
		FromCache:   fromCache,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STANDINGS READER
// Read-through access to the ranked snapshot shared by the leaderboard,
// profile and rank queries.
// ══════════════════════════════════════════════════════════════════════════════

// StandingsReader serves the current snapshot from the cache, building and
// storing it on a miss.
type StandingsReader struct {
	builder *SnapshotBuilder
	cache   leaderboard.Cache
	log     *logger.Logger
}

// NewStandingsReader creates a new StandingsReader. cache may be nil.
func NewStandingsReader(builder *SnapshotBuilder, cache leaderboard.Cache, log *logger.Logger) *StandingsReader {
	if log == nil {
		log = logger.Nop()
	}
	return &StandingsReader{builder: builder, cache: cache, log: log.With(logger.Component("standings"))}
}

// Snapshot returns the standings and whether they were served from the cache.
func (r *StandingsReader) Snapshot(ctx context.Context) (*leaderboard.Snapshot, bool, error) {
	if r.cache == nil {
		snap, err := r.builder.Build(ctx)
		return snap, false, err
	}

	snap, err := r.cache.GetSnapshot(ctx)
	if err == nil {
		return snap, true, nil
	}
	if !errors.Is(err, leaderboard.ErrCacheMiss) {
		// The cache is an optimization; fall back to storage.
		r.log.Warn("leaderboard cache read failed", logger.Err(err))
		snap, err := r.builder.Build(ctx)
		return snap, false, err
	}

	// Must be read before Build.
	generation, err := r.cache.Generation(ctx)
	if err != nil {
		r.log.Warn("leaderboard cache generation read failed", logger.Err(err))
		snap, err := r.builder.Build(ctx)
		return snap, false, err
	}

	snap, err = r.builder.Build(ctx)
	if err != nil {
		return nil, false, err
	}

	switch err := r.cache.SetSnapshot(ctx, snap, generation); {
	case err == nil:
	case errors.Is(err, leaderboard.ErrStaleSnapshot):
		r.log.Debug("standings changed during rebuild, snapshot not cached")
	default:
		r.log.Warn("leaderboard cache write failed", logger.Err(err))
	}
	return snap, false, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotBuilder reads every student and ranks them with the view.
type SnapshotBuilder struct {
	studentRepo student.Repository
	view        *leaderboard.View
	now         func() time.Time
}

// NewSnapshotBuilder creates a new SnapshotBuilder.
func NewSnapshotBuilder(studentRepo student.Repository, view *leaderboard.View) *SnapshotBuilder {
	return &SnapshotBuilder{studentRepo: studentRepo, view: view, now: time.Now}
}

// Build produces a fresh snapshot from storage.
func (b *SnapshotBuilder) Build(ctx context.Context) (*leaderboard.Snapshot, error) {
	students, err := b.studentRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return leaderboard.NewSnapshot(b.view.Standings(students), b.now()), nil
}
