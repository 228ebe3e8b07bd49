package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types.
const (
	EventStudentRegistered   EventType = "student.registered"
	EventStudentUpdated      EventType = "student.updated"
	EventPointsAwarded       EventType = "points.awarded"
	EventAchievementsChanged EventType = "achievements.changed"
	EventEventCreated        EventType = "event.created"
	EventEventDeleted        EventType = "event.deleted"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// Correlation returns the correlation ID, empty when untraced.
func (e BaseEvent) Correlation() string {
	return e.CorrelationID
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Student Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentRegisteredEvent is emitted when a student record is first created.
type StudentRegisteredEvent struct {
	BaseEvent
	Name string `json:"name"`
}

// Payload implements Event interface.
func (e StudentRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name": e.Name,
	}
}

// NewStudentRegisteredEvent creates a new StudentRegisteredEvent.
func NewStudentRegisteredEvent(identity, name string) StudentRegisteredEvent {
	return StudentRegisteredEvent{
		BaseEvent: NewBaseEvent(EventStudentRegistered, identity),
		Name:      name,
	}
}

// StudentUpdatedEvent is emitted when display fields change.
type StudentUpdatedEvent struct {
	BaseEvent
	Fields []string `json:"fields"`
}

// Payload implements Event interface.
func (e StudentUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"fields": e.Fields,
	}
}

// NewStudentUpdatedEvent creates a new StudentUpdatedEvent.
func NewStudentUpdatedEvent(identity string, fields []string) StudentUpdatedEvent {
	return StudentUpdatedEvent{
		BaseEvent: NewBaseEvent(EventStudentUpdated, identity),
		Fields:    fields,
	}
}

// PointsAwardedEvent is emitted after a ledger append has been persisted.
type PointsAwardedEvent struct {
	BaseEvent
	EntryID     string `json:"entry_id"`
	Points      int    `json:"points"`
	Source      string `json:"source"`
	TotalPoints int    `json:"total_points"`
}

// Payload implements Event interface.
func (e PointsAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"entry_id":     e.EntryID,
		"points":       e.Points,
		"source":       e.Source,
		"total_points": e.TotalPoints,
	}
}

// NewPointsAwardedEvent creates a new PointsAwardedEvent.
func NewPointsAwardedEvent(identity, entryID string, points int, source string, total int) PointsAwardedEvent {
	return PointsAwardedEvent{
		BaseEvent:   NewBaseEvent(EventPointsAwarded, identity),
		EntryID:     entryID,
		Points:      points,
		Source:      source,
		TotalPoints: total,
	}
}

// AchievementsChangedEvent is emitted when re-derivation grants or revokes badges.
type AchievementsChangedEvent struct {
	BaseEvent
	Granted []string `json:"granted"`
	Revoked []string `json:"revoked"`
}

// Payload implements Event interface.
func (e AchievementsChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"granted": e.Granted,
		"revoked": e.Revoked,
	}
}

// NewAchievementsChangedEvent creates a new AchievementsChangedEvent.
func NewAchievementsChangedEvent(identity string, granted, revoked []string) AchievementsChangedEvent {
	return AchievementsChangedEvent{
		BaseEvent: NewBaseEvent(EventAchievementsChanged, identity),
		Granted:   granted,
		Revoked:   revoked,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Calendar Events
// ═══════════════════════════════════════════════════════════════════════════

// EventCreatedEvent is emitted when an administrator adds a calendar event.
type EventCreatedEvent struct {
	BaseEvent
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// Payload implements Event interface.
func (e EventCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"title": e.Title,
		"date":  e.Date.Format(time.RFC3339),
	}
}

// NewEventCreatedEvent creates a new EventCreatedEvent.
func NewEventCreatedEvent(eventID, title string, date time.Time) EventCreatedEvent {
	return EventCreatedEvent{
		BaseEvent: NewBaseEvent(EventEventCreated, eventID),
		Title:     title,
		Date:      date,
	}
}

// EventDeletedEvent is emitted when a calendar event is removed.
type EventDeletedEvent struct {
	BaseEvent
}

// Payload implements Event interface.
func (e EventDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewEventDeletedEvent creates a new EventDeletedEvent.
func NewEventDeletedEvent(eventID string) EventDeletedEvent {
	return EventDeletedEvent{BaseEvent: NewBaseEvent(EventEventDeleted, eventID)}
}

// ═══════════════════════════════════════════════════════════════════════════
// Bus contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
