package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nexus-academicus/1board/internal/domain/event"
	"github.com/nexus-academicus/1board/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const eventColumns = `id, slug, title, date, description, location, link, created_at`

// EventRepository implements event.Repository for PostgreSQL.
type EventRepository struct {
	conn *Connection
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(conn *Connection) *EventRepository {
	return &EventRepository{conn: conn}
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	_, err := r.conn.Pool().Exec(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Slug, e.Title, e.Date, e.Description, e.Location, e.Link, e.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.NewDomainError("event", "Create", shared.ErrAlreadyExists, "event already exists")
		}
		return unavailable("event", "Create", err)
	}
	return nil
}

// GetByID returns an event by id.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	e, err := scanEvent(r.conn.Pool().QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrEventNotFound
		}
		return nil, unavailable("event", "GetByID", err)
	}
	return e, nil
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Pool().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return unavailable("event", "Delete", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrEventNotFound
	}
	return nil
}

// ListAll returns every event, newest first.
func (r *EventRepository) ListAll(ctx context.Context) ([]*event.Event, error) {
	rows, err := r.conn.Pool().Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date DESC`)
	if err != nil {
		return nil, unavailable("event", "ListAll", err)
	}
	defer rows.Close()

	var out []*event.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, unavailable("event", "ListAll", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("event", "ListAll", err)
	}
	return out, nil
}

var _ event.Repository = (*EventRepository)(nil)

func scanEvent(row pgx.Row) (*event.Event, error) {
	var (
		e        event.Event
		date, at time.Time
	)
	if err := row.Scan(&e.ID, &e.Slug, &e.Title, &date, &e.Description, &e.Location, &e.Link, &at); err != nil {
		return nil, err
	}
	e.Date = date.UTC()
	e.CreatedAt = at.UTC()
	return &e, nil
}
