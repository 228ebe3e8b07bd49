// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system: every ledger
// append, profile change and calendar edit goes through a handler here.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENSURE STUDENT COMMAND
// Called by the identity collaborator on every successful sign-in. Creates the
// student record on first contact; afterwards only syncs name and avatar.
// ══════════════════════════════════════════════════════════════════════════════

// EnsureStudentCommand contains the identity data supplied on sign-in.
type EnsureStudentCommand struct {
	Identity  string
	Name      string
	AvatarURL string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c EnsureStudentCommand) Validate() error {
	if _, err := shared.NewIdentity(c.Identity); err != nil {
		return err
	}
	return nil
}

// EnsureStudentResult contains the student after the call.
type EnsureStudentResult struct {
	Student *student.Student

	// Created is true when the record did not exist before.
	Created bool

	// Synced is true when name or avatar were updated.
	Synced bool
}

// EnsureStudentHandler handles EnsureStudentCommand.
type EnsureStudentHandler struct {
	studentRepo    student.Repository
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewEnsureStudentHandler creates a new EnsureStudentHandler.
func NewEnsureStudentHandler(studentRepo student.Repository, eventPublisher shared.EventPublisher) *EnsureStudentHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}
	return &EnsureStudentHandler{
		studentRepo:    studentRepo,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// Handle executes the command. Calling it twice for the same identity never
// touches the ledger.
func (h *EnsureStudentHandler) Handle(ctx context.Context, cmd EnsureStudentCommand) (*EnsureStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("ensure_student: validation failed: %w", err)
	}
	id, _ := shared.NewIdentity(cmd.Identity)

	existing, err := h.studentRepo.GetByIdentity(ctx, id)
	switch {
	case err == nil:
		return h.sync(ctx, existing, cmd)
	case !shared.IsNotFound(err):
		return nil, fmt.Errorf("ensure_student: failed to get student: %w", err)
	}

	stud, err := student.NewStudent(student.NewStudentParams{
		Identity:  string(id),
		Name:      cmd.Name,
		AvatarURL: cmd.AvatarURL,
	}, h.now())
	if err != nil {
		return nil, fmt.Errorf("ensure_student: %w", err)
	}

	if err := h.studentRepo.Create(ctx, stud); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost a creation race: the other caller's record wins.
			existing, getErr := h.studentRepo.GetByIdentity(ctx, id)
			if getErr != nil {
				return nil, fmt.Errorf("ensure_student: failed to get student: %w", getErr)
			}
			return h.sync(ctx, existing, cmd)
		}
		return nil, fmt.Errorf("ensure_student: failed to create student: %w", err)
	}

	event := shared.NewStudentRegisteredEvent(string(stud.Identity), stud.Name)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(event)

	return &EnsureStudentResult{Student: stud, Created: true}, nil
}

func (h *EnsureStudentHandler) sync(ctx context.Context, existing *student.Student, cmd EnsureStudentCommand) (*EnsureStudentResult, error) {
	// Skip the write when nothing would change.
	probe := existing.Clone()
	if !probe.SyncIdentity(cmd.Name, cmd.AvatarURL, h.now()) {
		return &EnsureStudentResult{Student: existing}, nil
	}

	synced := false
	updated, err := h.studentRepo.Mutate(ctx, existing.Identity, func(s *student.Student) error {
		synced = s.SyncIdentity(cmd.Name, cmd.AvatarURL, h.now())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ensure_student: failed to sync student: %w", err)
	}

	if synced {
		_ = h.eventPublisher.Publish(shared.NewStudentUpdatedEvent(string(updated.Identity), []string{"name", "avatarUrl"}))
	}
	return &EnsureStudentResult{Student: updated, Synced: synced}, nil
}
