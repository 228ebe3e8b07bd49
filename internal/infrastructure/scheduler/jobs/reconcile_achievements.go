package jobs

import (
	"context"
	"fmt"

	"github.com/nexus-academicus/1board/internal/application/command"
	"github.com/nexus-academicus/1board/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE ACHIEVEMENTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// Reconciler runs one reconcile pass over every student.
type Reconciler interface {
	Handle(ctx context.Context) (*command.ReconcileAchievementsResult, error)
}

// ReconcileAchievementsJob repairs totals and re-derives badges.
type ReconcileAchievementsJob struct {
	reconciler Reconciler
	log        *logger.Logger
}

// NewReconcileAchievementsJob creates the job.
func NewReconcileAchievementsJob(reconciler Reconciler, log *logger.Logger) *ReconcileAchievementsJob {
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileAchievementsJob{
		reconciler: reconciler,
		log:        log.With(logger.JobName("reconcile_achievements")),
	}
}

// Name implements scheduler.Job.
func (j *ReconcileAchievementsJob) Name() string { return "reconcile_achievements" }

// Description implements scheduler.Job.
func (j *ReconcileAchievementsJob) Description() string {
	return "Recompute totals from the point log and re-derive every student's badges"
}

// Run implements scheduler.Job. Individual student failures are logged; the
// run fails only when nothing could be checked.
func (j *ReconcileAchievementsJob) Run(ctx context.Context) error {
	res, err := j.reconciler.Handle(ctx)
	if err != nil {
		return fmt.Errorf("reconcile_achievements: %w", err)
	}

	for _, e := range res.Errors {
		j.log.Warn("student not reconciled", logger.Err(e))
	}
	j.log.Info("achievements reconciled",
		logger.Int("checked", res.Checked),
		logger.Int("repaired", res.Repaired),
		logger.Int("failed", res.Failed),
	)

	if res.Checked > 0 && res.Failed == res.Checked {
		return fmt.Errorf("reconcile_achievements: all %d students failed", res.Failed)
	}
	return nil
}
