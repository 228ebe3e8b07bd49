package query

import (
	"context"
	"fmt"
	"time"

	"github.com/nexus-academicus/1board/internal/domain/event"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST EVENTS QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// ListEventsHandler returns every event, newest first.
type ListEventsHandler struct {
	eventRepo event.Repository
}

// NewListEventsHandler creates a new ListEventsHandler.
func NewListEventsHandler(eventRepo event.Repository) *ListEventsHandler {
	return &ListEventsHandler{eventRepo: eventRepo}
}

// Handle executes the query.
func (h *ListEventsHandler) Handle(ctx context.Context) ([]*event.Event, error) {
	events, err := h.eventRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_events: %w", err)
	}
	return event.NewestFirst(events), nil
}

// UpcomingEventsQuery limits the result size.
type UpcomingEventsQuery struct {
	// Limit defaults to event.DefaultUpcomingLimit.
	Limit int
}

// UpcomingEventsHandler returns events that have not started yet.
type UpcomingEventsHandler struct {
	eventRepo event.Repository
	now       func() time.Time
}

// NewUpcomingEventsHandler creates a new UpcomingEventsHandler.
func NewUpcomingEventsHandler(eventRepo event.Repository) *UpcomingEventsHandler {
	return &UpcomingEventsHandler{eventRepo: eventRepo, now: time.Now}
}

// Handle executes the query.
func (h *UpcomingEventsHandler) Handle(ctx context.Context, q UpcomingEventsQuery) ([]*event.Event, error) {
	events, err := h.eventRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("upcoming_events: %w", err)
	}
	return event.Upcoming(events, h.now(), q.Limit), nil
}
