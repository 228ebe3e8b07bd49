package command

import (
	"context"
	"fmt"
	"time"

	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE ACHIEVEMENTS COMMAND
// Maintenance pass run by the worker: repairs totals from the log and
// re-derives badges, e.g. after the badge catalog or sticky mode changed.
// ══════════════════════════════════════════════════════════════════════════════

// ReconcileAchievementsResult summarizes one pass.
type ReconcileAchievementsResult struct {
	Checked  int
	Repaired int
	Failed   int
	Errors   []error
}

// ReconcileAchievementsHandler handles the reconcile pass.
type ReconcileAchievementsHandler struct {
	studentRepo    student.Repository
	evaluator      student.AchievementEvaluator
	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewReconcileAchievementsHandler creates a new ReconcileAchievementsHandler.
func NewReconcileAchievementsHandler(
	studentRepo student.Repository,
	evaluator student.AchievementEvaluator,
	eventPublisher shared.EventPublisher,
) *ReconcileAchievementsHandler {
	if eventPublisher == nil {
		eventPublisher = shared.NopPublisher{}
	}
	return &ReconcileAchievementsHandler{
		studentRepo:    studentRepo,
		evaluator:      evaluator,
		eventPublisher: eventPublisher,
		now:            time.Now,
	}
}

// Handle reconciles every student. A failure on one student does not stop
// the pass; it is counted and returned in the result.
func (h *ReconcileAchievementsHandler) Handle(ctx context.Context) (*ReconcileAchievementsResult, error) {
	students, err := h.studentRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile_achievements: failed to list students: %w", err)
	}

	result := &ReconcileAchievementsResult{}
	for _, s := range students {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++

		probe := s.Clone()
		if !probe.Reconcile(h.evaluator, h.now()) {
			continue
		}

		var granted, revoked []string
		_, err := h.studentRepo.Mutate(ctx, s.Identity, func(cur *student.Student) error {
			before := append([]student.Badge(nil), cur.Achievements...)
			cur.Reconcile(h.evaluator, h.now())
			granted, revoked = student.DiffBadges(before, cur.Achievements)
			return nil
		})
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("reconcile %s: %w", s.Identity, err))
			continue
		}

		result.Repaired++
		if len(granted) > 0 || len(revoked) > 0 {
			_ = h.eventPublisher.Publish(shared.NewAchievementsChangedEvent(string(s.Identity), granted, revoked))
		}
	}
	return result, nil
}
