package leaderboard

import (
	"context"
	"errors"
)

// ErrCacheMiss возвращается кешем, когда снимка нет или он устарел.
var ErrCacheMiss = errors.New("leaderboard cache miss")

// ErrStaleSnapshot возвращается SetSnapshot, если после начала сборки снимка
// кеш был инвалидирован.
var ErrStaleSnapshot = errors.New("leaderboard snapshot is stale")

// Cache хранит материализованный снимок лидерборда.
// Реализация находится в infrastructure/persistence/redis.
type Cache interface {
	// GetSnapshot возвращает снимок или ErrCacheMiss.
	GetSnapshot(ctx context.Context) (*Snapshot, error)

	// Generation возвращает счётчик инвалидаций. Читается до сборки снимка.
	Generation(ctx context.Context) (int64, error)

	// SetSnapshot сохраняет снимок, собранный при данном поколении. Если
	// поколение успело смениться, возвращает ErrStaleSnapshot и ничего не пишет.
	SetSnapshot(ctx context.Context, snapshot *Snapshot, generation int64) error

	// Invalidate удаляет снимок после мутации журнала или профиля и
	// увеличивает поколение.
	Invalidate(ctx context.Context) error
}
