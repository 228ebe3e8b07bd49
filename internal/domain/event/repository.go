package event

import (
	"context"
)

// Repository определяет операции с календарными событиями.
type Repository interface {
	// Create сохраняет новое событие.
	Create(ctx context.Context, e *Event) error

	// GetByID возвращает событие или ErrEventNotFound.
	GetByID(ctx context.Context, id string) (*Event, error)

	// Delete удаляет событие. Возвращает ErrEventNotFound, если его нет.
	Delete(ctx context.Context, id string) error

	// ListAll возвращает все события в произвольном порядке.
	ListAll(ctx context.Context) ([]*Event, error)
}
