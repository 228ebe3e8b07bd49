// Package event содержит календарные события академии (хакатоны, лекции,
// контесты), которые администраторы публикуют для студентов.
package event

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/nexus-academicus/1board/internal/domain/shared"
)

// DefaultUpcomingLimit - сколько ближайших событий показывается по умолчанию.
const DefaultUpcomingLimit = 5

// Event - календарное событие.
type Event struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Link        string    `json:"link,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewEventParams содержит параметры для создания события.
type NewEventParams struct {
	Title       string
	Date        string
	Description string
	Location    string
	Link        string
}

// New валидирует параметры и создаёт событие.
func New(params NewEventParams, now time.Time) (*Event, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, shared.ErrEmptyTitle
	}

	date, ok := shared.ParseTimestamp(strings.TrimSpace(params.Date))
	if !ok {
		return nil, shared.ErrInvalidDate
	}

	id := uuid.NewString()
	return &Event{
		ID:          id,
		Slug:        MakeSlug(title, id),
		Title:       title,
		Date:        date,
		Description: strings.TrimSpace(params.Description),
		Location:    strings.TrimSpace(params.Location),
		Link:        strings.TrimSpace(params.Link),
		CreatedAt:   now.UTC(),
	}, nil
}

// MakeSlug строит URL-слаг из заголовка с коротким суффиксом id, чтобы
// одинаковые заголовки не конфликтовали.
func MakeSlug(title, id string) string {
	base := slug.Make(title)
	suffix := strings.ReplaceAll(id, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// IsUpcoming возвращает true, если событие ещё не началось.
func (e *Event) IsUpcoming(now time.Time) bool {
	return !e.Date.Before(now)
}

// Upcoming возвращает события с датой >= now по возрастанию даты, не более limit.
// limit <= 0 означает DefaultUpcomingLimit.
func Upcoming(events []*Event, now time.Time, limit int) []*Event {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}

	out := make([]*Event, 0, len(events))
	for _, e := range events {
		if e.IsUpcoming(now) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// NewestFirst сортирует события по убыванию даты, не изменяя вход.
func NewestFirst(events []*Event) []*Event {
	out := append([]*Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
