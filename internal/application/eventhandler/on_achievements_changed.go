package eventhandler

import (
	"github.com/nexus-academicus/1board/internal/domain/achievement"
	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON ACHIEVEMENTS CHANGED HANDLER
// Ведёт журнал выданных и отозванных наград.
// ═══════════════════════════════════════════════════════════════════════════

// OnAchievementsChangedHandler пишет аудит изменений наград.
type OnAchievementsChangedHandler struct {
	log *logger.Logger
}

// NewOnAchievementsChangedHandler создаёт обработчик.
func NewOnAchievementsChangedHandler(log *logger.Logger) *OnAchievementsChangedHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OnAchievementsChangedHandler{log: log.With(logger.Component("on_achievements_changed"))}
}

// Register подписывает обработчик на shared.EventAchievementsChanged.
func (h *OnAchievementsChangedHandler) Register(sub shared.EventSubscriber) error {
	return sub.Subscribe(shared.EventAchievementsChanged, h.Handle)
}

// Handle журналирует награды по их отображаемым именам.
func (h *OnAchievementsChangedHandler) Handle(event shared.Event) error {
	payload := event.Payload()
	granted := badgeNames(payload["granted"])
	revoked := badgeNames(payload["revoked"])

	if len(granted) > 0 {
		h.log.Info("badges granted", logger.Identity(event.AggregateID()), logger.Badges(granted))
	}
	if len(revoked) > 0 {
		h.log.Info("badges revoked", logger.Identity(event.AggregateID()), logger.Badges(revoked))
	}
	return nil
}

// badgeNames принимает []string (локальное событие) или []interface{}
// (событие, пришедшее через Redis).
func badgeNames(raw interface{}) []string {
	var ids []string
	switch v := raw.(type) {
	case []string:
		ids = v
	case []interface{}:
		for _, x := range v {
			if s, ok := x.(string); ok {
				ids = append(ids, s)
			}
		}
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if b, ok := achievement.Lookup(id); ok {
			names = append(names, b.Name)
			continue
		}
		names = append(names, id)
	}
	return names
}
