package command

import (
	"context"
	"fmt"
	"time"

	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PROFILE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateProfileCommand changes display fields. Nil fields are left as is.
type UpdateProfileCommand struct {
	Identity    string
	Name        *string
	GitHubURL   *string
	LinkedInURL *string
}

// UpdateProfileHandler handles UpdateProfileCommand.
type UpdateProfileHandler struct {
	studentRepo    student.Repository
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewUpdateProfileHandler creates a new UpdateProfileHandler.
func NewUpdateProfileHandler(studentRepo student.Repository, eventPublisher shared.EventPublisher) *UpdateProfileHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}
	return &UpdateProfileHandler{
		studentRepo:    studentRepo,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// Handle applies the update and returns the stored student.
func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (*student.Student, error) {
	id, err := shared.NewIdentity(cmd.Identity)
	if err != nil {
		return nil, fmt.Errorf("update_profile: validation failed: %w", err)
	}

	var changed []string
	updated, err := h.studentRepo.Mutate(ctx, id, func(s *student.Student) error {
		fields, updateErr := s.UpdateProfile(student.ProfileUpdate{
			Name:        cmd.Name,
			GitHubURL:   cmd.GitHubURL,
			LinkedInURL: cmd.LinkedInURL,
		}, h.now())
		changed = fields
		return updateErr
	})
	if err != nil {
		return nil, fmt.Errorf("update_profile: %w", err)
	}

	if len(changed) > 0 {
		_ = h.eventPublisher.Publish(shared.NewStudentUpdatedEvent(string(id), changed))
	}
	return updated, nil
}
