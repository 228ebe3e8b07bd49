package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nexus-academicus/1board/internal/domain/event"
	"github.com/nexus-academicus/1board/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR EVENT COMMANDS (admin)
// ══════════════════════════════════════════════════════════════════════════════

// AddEventCommand creates a calendar event.
type AddEventCommand struct {
	Title       string
	Date        string
	Description string
	Location    string
	Link        string
}

// AddEventHandler handles AddEventCommand.
type AddEventHandler struct {
	eventRepo      event.Repository
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewAddEventHandler creates a new AddEventHandler.
func NewAddEventHandler(eventRepo event.Repository, eventPublisher shared.EventPublisher) *AddEventHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}
	return &AddEventHandler{eventRepo: eventRepo, eventPublisher: eventPublisher, now: time.Now}
}

// Handle validates and stores the event.
func (h *AddEventHandler) Handle(ctx context.Context, cmd AddEventCommand) (*event.Event, error) {
	e, err := event.New(event.NewEventParams{
		Title:       cmd.Title,
		Date:        cmd.Date,
		Description: cmd.Description,
		Location:    cmd.Location,
		Link:        cmd.Link,
	}, h.now())
	if err != nil {
		return nil, fmt.Errorf("add_event: %w", err)
	}

	if err := h.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("add_event: failed to save event: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewEventCreatedEvent(e.ID, e.Title, e.Date))
	return e, nil
}

// DeleteEventCommand removes a calendar event.
type DeleteEventCommand struct {
	ID string
}

// DeleteEventHandler handles DeleteEventCommand.
type DeleteEventHandler struct {
	eventRepo      event.Repository
	eventPublisher shared.EventPublisher
}

// NewDeleteEventHandler creates a new DeleteEventHandler.
func NewDeleteEventHandler(eventRepo event.Repository, eventPublisher shared.EventPublisher) *DeleteEventHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}
	return &DeleteEventHandler{eventRepo: eventRepo, eventPublisher: eventPublisher}
}

// Handle deletes the event; NotFound when it does not exist.
func (h *DeleteEventHandler) Handle(ctx context.Context, cmd DeleteEventCommand) error {
	id := strings.TrimSpace(cmd.ID)
	if id == "" {
		return fmt.Errorf("delete_event: %w", shared.NewDomainError("event", "Delete", shared.ErrInvalidID, "event id is required"))
	}

	if err := h.eventRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete_event: %w", err)
	}

	_ = h.eventPublisher.Publish(shared.NewEventDeletedEvent(id))
	return nil
}
