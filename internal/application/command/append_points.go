package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPEND POINTS COMMAND
// The single write path into a student's ledger. The append, the total update
// and the badge re-derivation happen inside one repository Mutate, so readers
// never observe a total that disagrees with the log.
// ══════════════════════════════════════════════════════════════════════════════

// AppendPointsCommand describes one ledger entry to append.
type AppendPointsCommand struct {
	Identity string

	// Points may be negative. Non-integer and non-finite values are rejected.
	Points float64

	// Source is one of LeetCode, GoogleForm, ManualAllocation, GitHub.
	Source string

	Description string

	// Date is an ISO-8601 timestamp; empty means now.
	Date string

	// EntryID is optional; a uuid is generated when empty. A supplied id that
	// is already in the ledger fails with AlreadyExists.
	EntryID string

	CorrelationID string
}

// Validate validates the command.
func (c AppendPointsCommand) Validate() error {
	if _, err := shared.NewIdentity(c.Identity); err != nil {
		return err
	}
	return nil
}

// AppendPointsResult contains the appended entry and the new aggregate state.
type AppendPointsResult struct {
	Entry        student.PointEntry
	TotalPoints  int
	Achievements []student.Badge

	// Granted and Revoked list badge ids that changed with this append.
	Granted []string
	Revoked []string
}

// AppendPointsHandler handles AppendPointsCommand.
type AppendPointsHandler struct {
	studentRepo    student.Repository
	evaluator      student.AchievementEvaluator
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewAppendPointsHandler creates a new AppendPointsHandler.
func NewAppendPointsHandler(
	studentRepo student.Repository,
	evaluator student.AchievementEvaluator,
	eventPublisher shared.EventPublisher,
) *AppendPointsHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}
	return &AppendPointsHandler{
		studentRepo:    studentRepo,
		evaluator:      evaluator,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// Handle appends the entry. InvalidInput leaves the ledger untouched; NotFound
// is returned for an unknown identity.
func (h *AppendPointsHandler) Handle(ctx context.Context, cmd AppendPointsCommand) (*AppendPointsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("append_points: validation failed: %w", err)
	}
	id, _ := shared.NewIdentity(cmd.Identity)

	var (
		entry  student.PointEntry
		before []student.Badge
	)
	updated, err := h.studentRepo.Mutate(ctx, id, func(s *student.Student) error {
		before = append([]student.Badge(nil), s.Achievements...)

		var appendErr error
		entry, appendErr = s.Append(student.PointEntryInput{
			ID:          cmd.EntryID,
			Date:        cmd.Date,
			Description: cmd.Description,
			Points:      cmd.Points,
			Source:      cmd.Source,
		}, h.evaluator, h.now())
		return appendErr
	})
	if err != nil {
		return nil, fmt.Errorf("append_points: %w", err)
	}

	granted, revoked := student.DiffBadges(before, updated.Achievements)
	result := &AppendPointsResult{
		Entry:        entry,
		TotalPoints:  updated.TotalPoints,
		Achievements: updated.Achievements,
		Granted:      granted,
		Revoked:      revoked,
	}

	awarded := shared.NewPointsAwardedEvent(string(id), entry.ID, entry.Points, entry.Source.String(), updated.TotalPoints)
	if cmd.CorrelationID != "" {
		awarded.BaseEvent = awarded.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	_ = h.eventPublisher.Publish(awarded)

	if len(granted) > 0 || len(revoked) > 0 {
		_ = h.eventPublisher.Publish(shared.NewAchievementsChangedEvent(string(id), granted, revoked))
	}

	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AWARD POINTS (admin manual allocation)
// ══════════════════════════════════════════════════════════════════════════════

// AwardPointsCommand is a manual allocation or deduction by an administrator.
type AwardPointsCommand struct {
	Identity      string
	Points        float64
	Reason        string
	CorrelationID string
}

// Validate validates the command.
func (c AwardPointsCommand) Validate() error {
	if strings.TrimSpace(c.Reason) == "" {
		return shared.NewDomainError("student", "AwardPoints", shared.ErrEmptyValue, "reason is required")
	}
	return nil
}

// AwardPointsHandler appends a ManualAllocation entry dated now.
type AwardPointsHandler struct {
	appender *AppendPointsHandler
}

// NewAwardPointsHandler creates a new AwardPointsHandler.
func NewAwardPointsHandler(appender *AppendPointsHandler) *AwardPointsHandler {
	return &AwardPointsHandler{appender: appender}
}

// Handle executes the command.
func (h *AwardPointsHandler) Handle(ctx context.Context, cmd AwardPointsCommand) (*AppendPointsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("award_points: validation failed: %w", err)
	}
	return h.appender.Handle(ctx, AppendPointsCommand{
		Identity:      cmd.Identity,
		Points:        cmd.Points,
		Source:        string(student.SourceManualAllocation),
		Description:   strings.TrimSpace(cmd.Reason),
		CorrelationID: cmd.CorrelationID,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY (integration award)
// ══════════════════════════════════════════════════════════════════════════════

// ErrManualSourceViaIntegration is returned when an integration tries to post a
// ManualAllocation entry; those go through AwardPoints.
var ErrManualSourceViaIntegration = shared.NewDomainError("student", "RecordActivity", shared.ErrInvalidInput,
	"ManualAllocation entries must be awarded by an administrator")

// RecordActivityCommand is posted by the LeetCode, GitHub and form integrations.
type RecordActivityCommand struct {
	Identity      string
	Source        string
	Points        float64
	Description   string
	Date          string
	// ExternalID becomes the entry id, so a replayed call is rejected.
	ExternalID    string
	CorrelationID string
}

// RecordActivityHandler appends integration entries.
type RecordActivityHandler struct {
	appender *AppendPointsHandler
}

// NewRecordActivityHandler creates a new RecordActivityHandler.
func NewRecordActivityHandler(appender *AppendPointsHandler) *RecordActivityHandler {
	return &RecordActivityHandler{appender: appender}
}

// Handle executes the command.
func (h *RecordActivityHandler) Handle(ctx context.Context, cmd RecordActivityCommand) (*AppendPointsResult, error) {
	source, err := student.ParseSource(cmd.Source)
	if err != nil {
		return nil, fmt.Errorf("record_activity: %w", err)
	}
	if source == student.SourceManualAllocation {
		return nil, fmt.Errorf("record_activity: %w", ErrManualSourceViaIntegration)
	}

	res, err := h.appender.Handle(ctx, AppendPointsCommand{
		Identity:      cmd.Identity,
		Points:        cmd.Points,
		Source:        string(source),
		Description:   cmd.Description,
		Date:          cmd.Date,
		EntryID:       cmd.ExternalID,
		CorrelationID: cmd.CorrelationID,
	})
	if err != nil && errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("record_activity: unknown student %q: %w", cmd.Identity, err)
	}
	return res, err
}
