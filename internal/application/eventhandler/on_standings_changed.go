// Package eventhandler содержит обработчики доменных событий.
// Обработчики - "реактивная" часть системы: они подписываются на шину
// событий и запускают побочные эффекты, такие как сброс кеша лидерборда
// или журналирование выданных наград.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/nexus-academicus/1board/internal/domain/leaderboard"
	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON STANDINGS CHANGED HANDLER
// Сбрасывает кешированный снимок лидерборда, когда меняются очки,
// награды или отображаемое имя студента.
// ═══════════════════════════════════════════════════════════════════════════

// StandingsEvents - события, после которых снимок лидерборда устаревает.
var StandingsEvents = []shared.EventType{
	shared.EventStudentRegistered,
	shared.EventStudentUpdated,
	shared.EventPointsAwarded,
	shared.EventAchievementsChanged,
}

// OnStandingsChangedHandler инвалидирует кеш лидерборда.
type OnStandingsChangedHandler struct {
	cache   leaderboard.Cache
	log     *logger.Logger
	timeout time.Duration
}

// NewOnStandingsChangedHandler создаёт обработчик. Логгер может быть nil.
func NewOnStandingsChangedHandler(cache leaderboard.Cache, log *logger.Logger) *OnStandingsChangedHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OnStandingsChangedHandler{
		cache:   cache,
		log:     log.With(logger.Component("on_standings_changed")),
		timeout: 2 * time.Second,
	}
}

// Register подписывает обработчик на все события StandingsEvents.
func (h *OnStandingsChangedHandler) Register(sub shared.EventSubscriber) error {
	for _, t := range StandingsEvents {
		if err := sub.Subscribe(t, h.HandleEvent); err != nil {
			return fmt.Errorf("on_standings_changed: subscribe %s: %w", t, err)
		}
	}
	return nil
}

// HandleEvent адаптирует Handle к сигнатуре shared.EventHandler.
func (h *OnStandingsChangedHandler) HandleEvent(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	return h.Handle(ctx, event)
}

// Handle сбрасывает снимок. Ошибка кеша не фатальна, устаревание
// ограничено TTL.
func (h *OnStandingsChangedHandler) Handle(ctx context.Context, event shared.Event) error {
	if err := h.cache.Invalidate(ctx); err != nil {
		h.log.Warn("failed to invalidate leaderboard cache",
			logger.String("event_type", string(event.EventType())),
			logger.Identity(event.AggregateID()),
			logger.Err(err),
		)
		return fmt.Errorf("on_standings_changed: %w", err)
	}

	h.log.Debug("leaderboard cache invalidated",
		logger.String("event_type", string(event.EventType())),
		logger.Identity(event.AggregateID()),
	)
	return nil
}
