package eventhandler

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-academicus/1board/internal/domain/achievement"
	"github.com/nexus-academicus/1board/internal/domain/leaderboard"
	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/infrastructure/messaging"
	"github.com/nexus-academicus/1board/pkg/logger"
)

type countingCache struct {
	invalidations int
	err           error
}

func (c *countingCache) GetSnapshot(context.Context) (*leaderboard.Snapshot, error) {
	return nil, leaderboard.ErrCacheMiss
}

func (c *countingCache) Generation(context.Context) (int64, error) { return 0, nil }

func (c *countingCache) SetSnapshot(context.Context, *leaderboard.Snapshot, int64) error { return nil }

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return c.err
}

func TestOnStandingsChanged_InvalidatesOnStandingEvents(t *testing.T) {
	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{AsyncMode: false})
	defer bus.Close()

	cache := &countingCache{}
	require.NoError(t, NewOnStandingsChangedHandler(cache, nil).Register(bus))

	require.NoError(t, bus.Publish(shared.NewStudentRegisteredEvent("u1", "Ann")))
	require.NoError(t, bus.Publish(shared.NewStudentUpdatedEvent("u1", []string{"name"})))
	require.NoError(t, bus.Publish(shared.NewPointsAwardedEvent("u1", "e1", 5, "LeetCode", 5)))
	require.NoError(t, bus.Publish(shared.NewAchievementsChangedEvent("u1", []string{achievement.IDFirst}, nil)))
	assert.Equal(t, 4, cache.invalidations)

	require.NoError(t, bus.Publish(shared.NewEventDeletedEvent("ev1")))
	assert.Equal(t, 4, cache.invalidations)
}

func TestOnStandingsChanged_ReportsCacheFailure(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelDebug})
	cache := &countingCache{err: errors.New("redis down")}

	h := NewOnStandingsChangedHandler(cache, log)
	err := h.Handle(context.Background(), shared.NewPointsAwardedEvent("u1", "e1", 5, "LeetCode", 5))

	assert.Error(t, err)
	assert.Contains(t, buf.String(), "failed to invalidate leaderboard cache")
	assert.Contains(t, buf.String(), `"identity":"u1"`)
}

func TestOnAchievementsChanged_LogsBadgeNames(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelInfo})
	h := NewOnAchievementsChangedHandler(log)

	ev := shared.NewAchievementsChangedEvent("u1",
		[]string{achievement.IDFirst, achievement.IDLeetCode},
		[]string{achievement.ID1000},
	)
	require.NoError(t, h.Handle(ev))

	out := buf.String()
	assert.Contains(t, out, "badges granted")
	assert.Contains(t, out, "First Steps")
	assert.Contains(t, out, "Code Warrior")
	assert.Contains(t, out, "badges revoked")
	assert.Contains(t, out, "Top Performer")
}

func TestBadgeNames_AcceptsDecodedPayload(t *testing.T) {
	got := badgeNames([]interface{}{achievement.IDGitHub, "custom", 42})
	assert.Equal(t, []string{"Open Source Contributor", "custom"}, got)
	assert.Empty(t, badgeNames(nil))
}
