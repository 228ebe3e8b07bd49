package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/infrastructure/persistence/memory"
)

func TestAddAndDeleteEvent(t *testing.T) {
	repo := memory.NewEventStore()
	pub := &recordingPublisher{}
	add := NewAddEventHandler(repo, pub)
	del := NewDeleteEventHandler(repo, pub)
	ctx := context.Background()

	e, err := add.Handle(ctx, AddEventCommand{Title: "Go Meetup", Date: "2030-01-15T18:00:00Z", Location: "Room 4"})
	require.NoError(t, err)
	assert.Contains(t, e.Slug, "go-meetup")

	stored, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Room 4", stored.Location)

	require.NoError(t, del.Handle(ctx, DeleteEventCommand{ID: e.ID}))
	assert.True(t, shared.IsNotFound(del.Handle(ctx, DeleteEventCommand{ID: e.ID})))

	assert.Equal(t, []shared.EventType{shared.EventEventCreated, shared.EventEventDeleted}, pub.types())
}

func TestAddEvent_Validation(t *testing.T) {
	add := NewAddEventHandler(memory.NewEventStore(), nil)

	_, err := add.Handle(context.Background(), AddEventCommand{Title: "", Date: "2030-01-15"})
	assert.True(t, shared.IsValidation(err))

	_, err = add.Handle(context.Background(), AddEventCommand{Title: "Talk", Date: "soon"})
	assert.True(t, shared.IsValidation(err))
}

func TestDeleteEvent_RequiresID(t *testing.T) {
	del := NewDeleteEventHandler(memory.NewEventStore(), nil)
	assert.ErrorIs(t, del.Handle(context.Background(), DeleteEventCommand{}), shared.ErrInvalidID)
}
