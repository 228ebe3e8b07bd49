package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-academicus/1board/internal/domain/achievement"
	"github.com/nexus-academicus/1board/internal/domain/event"
	"github.com/nexus-academicus/1board/internal/domain/leaderboard"
	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/domain/student"
	"github.com/nexus-academicus/1board/internal/infrastructure/persistence/memory"
)

const adminID = shared.Identity("admin_uid")

type fakeCache struct {
	snap       *leaderboard.Snapshot
	generation int64
	getErr     error
	sets       int
	stale      int
}

func (c *fakeCache) GetSnapshot(context.Context) (*leaderboard.Snapshot, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	if c.snap == nil {
		return nil, leaderboard.ErrCacheMiss
	}
	return c.snap, nil
}

func (c *fakeCache) Generation(context.Context) (int64, error) {
	return c.generation, nil
}

func (c *fakeCache) SetSnapshot(_ context.Context, s *leaderboard.Snapshot, generation int64) error {
	if generation != c.generation {
		c.stale++
		return leaderboard.ErrStaleSnapshot
	}
	c.sets++
	c.snap = s
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.generation++
	c.snap = nil
	return nil
}

// hookedStore runs onList once, after ListAll has read the students.
type hookedStore struct {
	*memory.StudentStore
	onList func()
}

func (s *hookedStore) ListAll(ctx context.Context) ([]*student.Student, error) {
	all, err := s.StudentStore.ListAll(ctx)
	if hook := s.onList; hook != nil {
		s.onList = nil
		hook()
	}
	return all, err
}

func seedStudents(t *testing.T) *memory.StudentStore {
	t.Helper()
	repo := memory.NewStudentStore()
	engine := achievement.NewEngine(false)
	ctx := context.Background()

	for _, s := range []struct {
		id, name string
		points   float64
	}{
		{"a", "Alice Johnson", 1200},
		{"b", "Bob Williams", 900},
		{string(adminID), "Admin", 999999},
		{"c", "Carol Alison", 900},
	} {
		st, err := student.NewStudent(student.NewStudentParams{Identity: s.id, Name: s.name}, time.Now())
		require.NoError(t, err)
		_, err = st.Append(student.PointEntryInput{Points: s.points, Source: "ManualAllocation", Date: "2024-07-01T00:00:00Z"}, engine, time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, st))
	}
	return repo
}

func newStandings(repo student.Repository, cache leaderboard.Cache) *StandingsReader {
	builder := NewSnapshotBuilder(repo, leaderboard.NewView(leaderboard.Config{AdminIdentity: adminID}))
	return NewStandingsReader(builder, cache, nil)
}

func TestGetLeaderboard_RanksAndExcludesAdmin(t *testing.T) {
	repo := seedStudents(t)
	h := NewGetLeaderboardHandler(newStandings(repo, nil))

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)

	require.Len(t, res.Entries, 3)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, shared.Identity("a"), res.Entries[0].Identity)
	for _, e := range res.Entries {
		assert.NotEqual(t, adminID, e.Identity)
	}
	assert.False(t, res.FromCache)
}

func TestGetLeaderboard_SearchKeepsRanks(t *testing.T) {
	repo := seedStudents(t)
	h := NewGetLeaderboardHandler(newStandings(repo, nil))

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{Search: "ALI"})
	require.NoError(t, err)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, "Alice Johnson", res.Entries[0].Name)
	assert.Equal(t, shared.Rank(1), res.Entries[0].Rank)
	assert.Equal(t, "Carol Alison", res.Entries[1].Name)
}

func TestGetLeaderboard_Limit(t *testing.T) {
	repo := seedStudents(t)
	h := NewGetLeaderboardHandler(newStandings(repo, nil))

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1)
	assert.Equal(t, 3, res.Total)

	_, err = h.Handle(context.Background(), GetLeaderboardQuery{Limit: -1})
	assert.Error(t, err)
}

func TestGetLeaderboard_UsesCache(t *testing.T) {
	repo := seedStudents(t)
	cache := &fakeCache{}
	h := NewGetLeaderboardHandler(newStandings(repo, cache))

	first, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 1, cache.sets)

	second, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, cache.sets)
}

func TestGetLeaderboard_CacheErrorFallsBackToStorage(t *testing.T) {
	repo := seedStudents(t)
	cache := &fakeCache{getErr: errors.New("redis down")}
	h := NewGetLeaderboardHandler(newStandings(repo, cache))

	res, err := h.Handle(context.Background(), GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 3)
}

func TestGetLeaderboard_InvalidationDuringBuildIsNotCached(t *testing.T) {
	repo := &hookedStore{StudentStore: seedStudents(t)}
	cache := &fakeCache{}
	h := NewGetLeaderboardHandler(newStandings(repo, cache))
	ctx := context.Background()

	repo.onList = func() {
		_, err := repo.Mutate(ctx, "b", func(s *student.Student) error {
			_, err := s.Append(student.PointEntryInput{Points: 5000, Source: "GitHub"}, achievement.NewEngine(false), time.Now())
			return err
		})
		require.NoError(t, err)
		require.NoError(t, cache.Invalidate(ctx))
	}

	first, err := h.Handle(ctx, GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, shared.Identity("a"), first.Entries[0].Identity)
	assert.Nil(t, cache.snap)
	assert.Equal(t, 1, cache.stale)

	second, err := h.Handle(ctx, GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.False(t, second.FromCache)
	assert.Equal(t, shared.Identity("b"), second.Entries[0].Identity)
	assert.Equal(t, 5900, second.Entries[0].TotalPoints)

	third, err := h.Handle(ctx, GetLeaderboardQuery{})
	require.NoError(t, err)
	assert.True(t, third.FromCache)
	assert.Equal(t, shared.Identity("b"), third.Entries[0].Identity)
}

func TestGetStudent(t *testing.T) {
	repo := seedStudents(t)
	h := NewGetStudentHandler(repo, newStandings(repo, nil))

	dto, err := h.Handle(context.Background(), GetStudentQuery{Identity: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, dto.Rank)
	assert.True(t, dto.Ranked)
	assert.Len(t, dto.History, 1)
	assert.Contains(t, student.BadgeIDs(dto.Achievements), achievement.ID1000)

	adminDTO, err := h.Handle(context.Background(), GetStudentQuery{Identity: string(adminID)})
	require.NoError(t, err)
	assert.False(t, adminDTO.Ranked)
	assert.Zero(t, adminDTO.Rank)

	_, err = h.Handle(context.Background(), GetStudentQuery{Identity: "ghost"})
	assert.True(t, shared.IsNotFound(err))
}

func TestGetStudentRank(t *testing.T) {
	repo := seedStudents(t)
	h := NewGetStudentRankHandler(newStandings(repo, nil))

	dto, err := h.Handle(context.Background(), GetStudentRankQuery{Identity: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, dto.Rank)
	assert.Equal(t, 3, dto.OutOf)
	assert.Equal(t, 1200, dto.TotalPoints)
	assert.NotEmpty(t, dto.Medal)

	_, err = h.Handle(context.Background(), GetStudentRankQuery{Identity: string(adminID)})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetStudentRank_ReadsCachedSnapshot(t *testing.T) {
	repo := seedStudents(t)
	cache := &fakeCache{snap: leaderboard.NewSnapshot([]leaderboard.Entry{
		{Rank: 1, Identity: "c", Name: "Carol Alison", TotalPoints: 900},
		{Rank: 2, Identity: "a", Name: "Alice Johnson", TotalPoints: 800},
	}, time.Now())}

	dto, err := NewGetStudentRankHandler(newStandings(repo, cache)).Handle(context.Background(), GetStudentRankQuery{Identity: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, dto.Rank)
	assert.Equal(t, 2, dto.OutOf)
	assert.Equal(t, 800, dto.TotalPoints)
	assert.Zero(t, cache.sets)

	profile, err := NewGetStudentHandler(repo, newStandings(repo, cache)).Handle(context.Background(), GetStudentQuery{Identity: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, profile.Rank)
	assert.Equal(t, 1200, profile.TotalPoints)
}

func TestEventsQueries(t *testing.T) {
	repo := memory.NewEventStore()
	ctx := context.Background()
	now := time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC)

	for _, p := range []event.NewEventParams{
		{Title: "Past", Date: "2024-07-01T10:00:00Z"},
		{Title: "Next", Date: "2024-07-21T10:00:00Z"},
		{Title: "Later", Date: "2024-08-21T10:00:00Z"},
	} {
		e, err := event.New(p, now)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, e))
	}

	all, err := NewListEventsHandler(repo).Handle(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Later", all[0].Title)
	assert.Equal(t, "Past", all[2].Title)

	upcoming := NewUpcomingEventsHandler(repo)
	upcoming.now = func() time.Time { return now }
	got, err := upcoming.Handle(ctx, UpcomingEventsQuery{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Next", got[0].Title)
}

type stubProvider struct {
	p   *DailyProblem
	err error
}

func (s stubProvider) DailyProblem(context.Context) (*DailyProblem, error) { return s.p, s.err }

func TestGetDailyProblem(t *testing.T) {
	p, err := NewGetDailyProblemHandler(stubProvider{p: &DailyProblem{Title: "Two Sum"}}).Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", p.Title)

	_, err = NewGetDailyProblemHandler(stubProvider{err: shared.ErrLeetCodeUnavailable}).Handle(context.Background())
	assert.True(t, shared.IsUnavailable(err))
}
