package command

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-academicus/1board/internal/domain/achievement"
	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/domain/student"
	"github.com/nexus-academicus/1board/internal/infrastructure/persistence/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type fixture struct {
	repo      *memory.StudentStore
	publisher *recordingPublisher
	ensure    *EnsureStudentHandler
	appender  *AppendPointsHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memory.NewStudentStore()
	pub := &recordingPublisher{}
	return &fixture{
		repo:      repo,
		publisher: pub,
		ensure:    NewEnsureStudentHandler(repo, pub),
		appender:  NewAppendPointsHandler(repo, achievement.NewEngine(false), pub),
	}
}

func (f *fixture) register(t *testing.T, id, name string) {
	t.Helper()
	_, err := f.ensure.Handle(context.Background(), EnsureStudentCommand{Identity: id, Name: name})
	require.NoError(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// EnsureStudent
// ─────────────────────────────────────────────────────────────────────────────

func TestEnsureStudent_CreatesOnFirstContact(t *testing.T) {
	f := newFixture(t)

	res, err := f.ensure.Handle(context.Background(), EnsureStudentCommand{Identity: "user_1"})
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, student.DefaultName, res.Student.Name)
	assert.Equal(t, student.DefaultAvatarURL, res.Student.AvatarURL)
	assert.Equal(t, []shared.EventType{shared.EventStudentRegistered}, f.publisher.types())
}

func TestEnsureStudent_IsIdempotentForLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "user_1", "Alice")

	_, err := f.appender.Handle(ctx, AppendPointsCommand{Identity: "user_1", Points: 150, Source: "LeetCode"})
	require.NoError(t, err)

	res, err := f.ensure.Handle(ctx, EnsureStudentCommand{Identity: "user_1", Name: "Alice Johnson", AvatarURL: "https://img/alice.png"})
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.True(t, res.Synced)
	assert.Equal(t, "Alice Johnson", res.Student.Name)
	assert.Equal(t, 150, res.Student.TotalPoints)
	assert.Len(t, res.Student.PointsLog, 1)

	again, err := f.ensure.Handle(ctx, EnsureStudentCommand{Identity: "user_1"})
	require.NoError(t, err)
	assert.False(t, again.Synced)
	assert.Equal(t, "Alice Johnson", again.Student.Name)
	assert.Equal(t, res.Student.PointsLog, again.Student.PointsLog)
}

func TestEnsureStudent_RejectsEmptyIdentity(t *testing.T) {
	f := newFixture(t)
	_, err := f.ensure.Handle(context.Background(), EnsureStudentCommand{Identity: " "})
	assert.True(t, shared.IsValidation(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// AppendPoints
// ─────────────────────────────────────────────────────────────────────────────

func TestAppendPoints_UpdatesTotalsAndBadges(t *testing.T) {
	f := newFixture(t)
	f.register(t, "u1", "Alice")

	res, err := f.appender.Handle(context.Background(), AppendPointsCommand{
		Identity:    "u1",
		Points:      600,
		Source:      "LeetCode",
		Description: "Contest",
	})
	require.NoError(t, err)

	assert.Equal(t, 600, res.TotalPoints)
	assert.ElementsMatch(t, []string{achievement.IDFirst, achievement.ID500, achievement.IDLeetCode}, res.Granted)
	assert.Empty(t, res.Revoked)
	assert.Contains(t, f.publisher.types(), shared.EventPointsAwarded)
	assert.Contains(t, f.publisher.types(), shared.EventAchievementsChanged)

	stored, err := f.repo.GetByIdentity(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 600, stored.TotalPoints)
	assert.Equal(t, res.Entry.ID, stored.PointsLog[0].ID)
}

func TestAppendPoints_DeductionRevokesBadges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "Alice")

	_, err := f.appender.Handle(ctx, AppendPointsCommand{Identity: "u1", Points: 1200, Source: "GoogleForm"})
	require.NoError(t, err)

	res, err := f.appender.Handle(ctx, AppendPointsCommand{Identity: "u1", Points: -2000, Source: "ManualAllocation"})
	require.NoError(t, err)

	assert.Equal(t, -800, res.TotalPoints)
	assert.ElementsMatch(t, []string{achievement.ID500, achievement.ID1000}, res.Revoked)
}

func TestAppendPoints_InvalidInputLeavesLedgerUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "Alice")
	_, err := f.appender.Handle(ctx, AppendPointsCommand{Identity: "u1", Points: 10, Source: "GitHub"})
	require.NoError(t, err)

	_, err = f.appender.Handle(ctx, AppendPointsCommand{Identity: "u1", Points: 10, Source: "Hackerrank"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.appender.Handle(ctx, AppendPointsCommand{Identity: "u1", Points: math.NaN(), Source: "GitHub"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	stored, _ := f.repo.GetByIdentity(ctx, "u1")
	assert.Equal(t, 10, stored.TotalPoints)
	assert.Len(t, stored.PointsLog, 1)
}

func TestAppendPoints_UnknownStudent(t *testing.T) {
	f := newFixture(t)
	_, err := f.appender.Handle(context.Background(), AppendPointsCommand{Identity: "ghost", Points: 1, Source: "GitHub"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, f.publisher.types())
}

func TestAppendPoints_ConcurrentSameStudent(t *testing.T) {
	f := newFixture(t)
	f.register(t, "u1", "Alice")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.appender.Handle(context.Background(), AppendPointsCommand{Identity: "u1", Points: 10, Source: "LeetCode"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, _ := f.repo.GetByIdentity(context.Background(), "u1")
	assert.Equal(t, 500, stored.TotalPoints)
	assert.Len(t, stored.PointsLog, 50)
}

// ─────────────────────────────────────────────────────────────────────────────
// AwardPoints / RecordActivity
// ─────────────────────────────────────────────────────────────────────────────

func TestAwardPoints_UsesManualAllocation(t *testing.T) {
	f := newFixture(t)
	f.register(t, "u1", "Alice")
	award := NewAwardPointsHandler(f.appender)

	res, err := award.Handle(context.Background(), AwardPointsCommand{Identity: "u1", Points: 75, Reason: " Hackathon "})
	require.NoError(t, err)
	assert.Equal(t, student.SourceManualAllocation, res.Entry.Source)
	assert.Equal(t, "Hackathon", res.Entry.Description)

	_, err = award.Handle(context.Background(), AwardPointsCommand{Identity: "u1", Points: 75})
	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}

func TestRecordActivity(t *testing.T) {
	f := newFixture(t)
	f.register(t, "u1", "Alice")
	rec := NewRecordActivityHandler(f.appender)

	res, err := rec.Handle(context.Background(), RecordActivityCommand{
		Identity:   "u1",
		Source:     "GitHub",
		Points:     30,
		Date:       "2024-07-10T14:00:00Z",
		ExternalID: "gh-pr-17",
	})
	require.NoError(t, err)
	assert.Equal(t, "gh-pr-17", res.Entry.ID)
	assert.Equal(t, "2024-07-10T14:00:00Z", res.Entry.Date)
	assert.Contains(t, res.Granted, achievement.IDGitHub)

	_, err = rec.Handle(context.Background(), RecordActivityCommand{Identity: "u1", Source: "Manual Allocation", Points: 5})
	assert.ErrorIs(t, err, ErrManualSourceViaIntegration)

	_, err = rec.Handle(context.Background(), RecordActivityCommand{Identity: "nobody", Source: "LeetCode", Points: 5})
	assert.True(t, shared.IsNotFound(err))
}

func TestRecordActivity_ReplayedExternalIDIsRejected(t *testing.T) {
	f := newFixture(t)
	f.register(t, "u1", "Alice")
	rec := NewRecordActivityHandler(f.appender)
	cmd := RecordActivityCommand{Identity: "u1", Source: "LeetCode", Points: 50, ExternalID: "lc-123"}

	_, err := rec.Handle(context.Background(), cmd)
	require.NoError(t, err)

	_, err = rec.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrDuplicateEntryID)
	assert.True(t, shared.IsAlreadyExists(err))

	s, err := f.repo.GetByIdentity(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, s.PointsLog, 1)
	assert.Equal(t, 50, s.TotalPoints)
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateProfile
// ─────────────────────────────────────────────────────────────────────────────

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	f.register(t, "u1", "Alice")
	h := NewUpdateProfileHandler(f.repo, f.publisher)

	gh := "https://github.com/alice"
	updated, err := h.Handle(context.Background(), UpdateProfileCommand{Identity: "u1", GitHubURL: &gh})
	require.NoError(t, err)
	assert.Equal(t, gh, updated.GitHubURL)
	assert.Contains(t, f.publisher.types(), shared.EventStudentUpdated)

	_, err = h.Handle(context.Background(), UpdateProfileCommand{Identity: "ghost", GitHubURL: &gh})
	assert.True(t, shared.IsNotFound(err))
}

// ─────────────────────────────────────────────────────────────────────────────
// ReconcileAchievements
// ─────────────────────────────────────────────────────────────────────────────

func TestReconcileAchievements_RepairsDriftedRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "u1", "Alice")
	f.register(t, "u2", "Bob")

	_, err := f.appender.Handle(ctx, AppendPointsCommand{Identity: "u2", Points: 100, Source: "GitHub"})
	require.NoError(t, err)

	// Simulate a record written by an older version without badges.
	_, err = f.repo.Mutate(ctx, "u1", func(s *student.Student) error {
		s.PointsLog = append(s.PointsLog, student.PointEntry{ID: "legacy", Date: "2024-07-01", Points: 700, Source: student.SourceLeetCode})
		return nil
	})
	require.NoError(t, err)

	h := NewReconcileAchievementsHandler(f.repo, achievement.NewEngine(false), f.publisher)
	h.now = func() time.Time { return time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC) }

	res, err := h.Handle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, 1, res.Repaired)
	assert.Zero(t, res.Failed)

	u1, _ := f.repo.GetByIdentity(ctx, "u1")
	assert.Equal(t, 700, u1.TotalPoints)
	assert.ElementsMatch(t, []string{achievement.IDFirst, achievement.ID500, achievement.IDLeetCode}, student.BadgeIDs(u1.Achievements))

	again, err := h.Handle(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Repaired)
}
