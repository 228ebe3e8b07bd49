package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-academicus/1board/internal/domain/shared"
)

var now = time.Date(2024, 7, 20, 12, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	e, err := New(NewEventParams{
		Title:       "  Summer Hackathon 2024 ",
		Date:        "2024-08-01T10:00:00Z",
		Description: "48 hours",
		Location:    "Main hall",
	}, now)
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "Summer Hackathon 2024", e.Title)
	assert.Regexp(t, `^summer-hackathon-2024-[0-9a-f]{8}$`, e.Slug)
	assert.Equal(t, time.Date(2024, 8, 1, 10, 0, 0, 0, time.UTC), e.Date)
	assert.Equal(t, now, e.CreatedAt)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(NewEventParams{Title: " ", Date: "2024-08-01"}, now)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = New(NewEventParams{Title: "Talk", Date: "next tuesday"}, now)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestMakeSlug(t *testing.T) {
	assert.Equal(t, "go-meetup-12345678", MakeSlug("Go Meetup!", "12345678-aaaa"))
	assert.Equal(t, "abcd", MakeSlug("!!!", "abcd"))
}

func at(title string, d time.Time) *Event {
	return &Event{ID: title, Title: title, Date: d}
}

func TestUpcoming(t *testing.T) {
	events := []*Event{
		at("past", now.Add(-time.Hour)),
		at("far", now.Add(72*time.Hour)),
		at("now", now),
		at("soon", now.Add(time.Hour)),
	}

	got := Upcoming(events, now, 0)
	titles := make([]string, len(got))
	for i, e := range got {
		titles[i] = e.Title
	}
	assert.Equal(t, []string{"now", "soon", "far"}, titles)

	assert.Len(t, Upcoming(events, now, 2), 2)
}

func TestUpcoming_DefaultLimit(t *testing.T) {
	var events []*Event
	for i := 0; i < 8; i++ {
		events = append(events, at("e", now.Add(time.Duration(i+1)*time.Hour)))
	}
	assert.Len(t, Upcoming(events, now, 0), DefaultUpcomingLimit)
}

func TestNewestFirst(t *testing.T) {
	events := []*Event{at("old", now.Add(-48*time.Hour)), at("new", now), at("mid", now.Add(-time.Hour))}
	got := NewestFirst(events)
	assert.Equal(t, "new", got[0].Title)
	assert.Equal(t, "mid", got[1].Title)
	assert.Equal(t, "old", got[2].Title)
	assert.Equal(t, "old", events[0].Title)
}
