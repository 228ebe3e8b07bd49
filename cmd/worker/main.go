// Package main - точка входа для фоновых процессов (Worker) 1board.
//
// Worker отвечает за периодические задачи:
// - Пересборка снапшота лидерборда в Redis
// - Ночная сверка баллов и достижений по журналу очков
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nexus-academicus/1board/config"
	"github.com/nexus-academicus/1board/internal/application/command"
	"github.com/nexus-academicus/1board/internal/application/query"
	"github.com/nexus-academicus/1board/internal/bootstrap"
	"github.com/nexus-academicus/1board/internal/infrastructure/scheduler"
	"github.com/nexus-academicus/1board/internal/infrastructure/scheduler/jobs"
	"github.com/nexus-academicus/1board/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := bootstrap.NewLogger(cfg).With(logger.Component("worker"))

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler disabled (SCHEDULER_ENABLED=false), nothing to do")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ИНФРАСТРУКТУРА
	// ─────────────────────────────────────────────────────────────────────────
	infra, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	if cfg.Database.InMemory() {
		log.Warn("worker is running against in-memory storage, jobs only see this process's data")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	tz, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Warn("unknown timezone, falling back to UTC", logger.String("timezone", cfg.App.Timezone))
		tz = time.UTC
	}

	sched, err := scheduler.New(scheduler.Config{
		Logger:     log,
		Timezone:   tz,
		JobTimeout: cfg.Scheduler.JobTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. РЕГИСТРАЦИЯ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	if infra.Cache != nil {
		builder := query.NewSnapshotBuilder(infra.Students, infra.View)
		rebuild := jobs.NewRebuildLeaderboardJob(builder, infra.Cache, log)
		if err := sched.Every(rebuild, cfg.Scheduler.RebuildLeaderboardInterval, true); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", rebuild.Name(), err)
		}
	} else {
		log.Info("leaderboard cache unavailable, rebuild job skipped")
	}

	reconciler := command.NewReconcileAchievementsHandler(infra.Students, infra.Engine, infra.Bus)
	reconcile := jobs.NewReconcileAchievementsJob(reconciler, log)
	if err := sched.Cron(reconcile, cfg.Scheduler.ReconcileCron); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", reconcile.Name(), err)
	}

	sched.Start()

	for _, job := range sched.ListJobs() {
		log.Info("job scheduled",
			logger.JobName(job.Name),
			logger.String("schedule", job.Schedule),
			logger.Time("next_run", job.NextRun),
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case <-ctx.Done():
	}

	log.Info("stopping scheduler...")
	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler gracefully", logger.Err(err))
	}

	log.Info("worker stopped")
	return nil
}
