package student

import (
	"context"

	"github.com/nexus-academicus/1board/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракт хранилища студентов (StudentDirectory). Реализации находятся в
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// MutateFunc изменяет студента внутри атомарной операции. Ошибка отменяет
// изменения целиком.
type MutateFunc func(s *Student) error

// Repository определяет операции со студентами.
type Repository interface {
	// Create создаёт нового студента.
	// Возвращает ErrStudentAlreadyExists, если identity уже занят.
	Create(ctx context.Context, s *Student) error

	// GetByIdentity возвращает студента по identity.
	// Возвращает ErrStudentNotFound, если студент не найден.
	GetByIdentity(ctx context.Context, identity shared.Identity) (*Student, error)

	// ListAll возвращает всех студентов.
	ListAll(ctx context.Context) ([]*Student, error)

	// Mutate выполняет read-modify-write одной записи атомарно: конкурентные
	// вызовы для одного identity сериализуются, потерянных обновлений нет.
	// Если fn вернула ошибку, запись не изменяется.
	Mutate(ctx context.Context, identity shared.Identity, fn MutateFunc) (*Student, error)
}
