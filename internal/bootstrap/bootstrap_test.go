package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-academicus/1board/config"
	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/infrastructure/messaging"
	"github.com/nexus-academicus/1board/internal/infrastructure/persistence/memory"
	"github.com/nexus-academicus/1board/pkg/logger"
)

func TestNew_InMemoryWithoutRedis(t *testing.T) {
	cfg := &config.Config{
		Redis:       config.RedisConfig{Disabled: true},
		Leaderboard: config.LeaderboardConfig{AdminIdentity: "admin_uid"},
		Features:    config.LoadFeatureFlags(),
	}

	infra, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer infra.Close()

	assert.IsType(t, &memory.StudentStore{}, infra.Students)
	assert.IsType(t, &memory.EventStore{}, infra.Events)
	assert.IsType(t, &messaging.InMemoryEventBus{}, infra.Bus)
	assert.Nil(t, infra.Cache)
	assert.Empty(t, infra.Checks)
	assert.True(t, infra.View.IsExcluded(shared.Identity("admin_uid")))
}

func TestClose_Idempotent(t *testing.T) {
	cfg := &config.Config{
		Redis:    config.RedisConfig{Disabled: true},
		Features: config.LoadFeatureFlags(),
	}

	infra, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)

	infra.Close()
	assert.NotPanics(t, infra.Close)
}
