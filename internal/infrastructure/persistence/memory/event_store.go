package memory

import (
	"context"
	"sync"

	"github.com/nexus-academicus/1board/internal/domain/event"
	"github.com/nexus-academicus/1board/internal/domain/shared"
)

// EventStore is an in-memory event.Repository.
type EventStore struct {
	mu     sync.RWMutex
	events map[string]event.Event
}

// NewEventStore creates an empty store.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[string]event.Event)}
}

// Create implements event.Repository.
func (s *EventStore) Create(ctx context.Context, e *event.Event) error {
	if err := ctx.Err(); err != nil {
		return shared.Unavailable("event", "Create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[e.ID]; ok {
		return shared.NewDomainError("event", "Create", shared.ErrAlreadyExists, "event already exists")
	}
	s.events[e.ID] = *e
	return nil
}

// GetByID implements event.Repository.
func (s *EventStore) GetByID(ctx context.Context, id string) (*event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.Unavailable("event", "GetByID", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok {
		return nil, shared.ErrEventNotFound
	}
	return &e, nil
}

// Delete implements event.Repository.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return shared.Unavailable("event", "Delete", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return shared.ErrEventNotFound
	}
	delete(s.events, id)
	return nil
}

// ListAll implements event.Repository.
func (s *EventStore) ListAll(ctx context.Context) ([]*event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.Unavailable("event", "ListAll", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*event.Event, 0, len(s.events))
	for _, e := range s.events {
		e := e
		out = append(out, &e)
	}
	return out, nil
}

var _ event.Repository = (*EventStore)(nil)
