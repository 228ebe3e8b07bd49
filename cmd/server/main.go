// Package main - точка входа HTTP API 1board.
//
// Сервер отдаёт лидерборд, карточки студентов и события кампуса, принимает
// начисления очков от администратора и интеграций (LeetCode, GitHub).
// Очки хранятся как append-only журнал, достижения пересчитываются после
// каждого начисления.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nexus-academicus/1board/config"
	"github.com/nexus-academicus/1board/internal/application/command"
	"github.com/nexus-academicus/1board/internal/application/query"
	"github.com/nexus-academicus/1board/internal/bootstrap"
	"github.com/nexus-academicus/1board/internal/infrastructure/external/leetcode"
	httpserver "github.com/nexus-academicus/1board/internal/interface/http"
	"github.com/nexus-academicus/1board/pkg/circuitbreaker"
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
	log := bootstrap.NewLogger(cfg).With(logger.Component("server"))

	log.Info("starting 1board API",
		logger.String("version", cfg.App.Version),
		logger.Any("features", cfg.Features.Enabled()),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ИНФРАСТРУКТУРА (хранилище, Redis, шина событий)
	// ─────────────────────────────────────────────────────────────────────────
	infra, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	builder := query.NewSnapshotBuilder(infra.Students, infra.View)
	standings := query.NewStandingsReader(builder, infra.Cache, log)
	appender := command.NewAppendPointsHandler(infra.Students, infra.Engine, infra.Bus)

	deps := httpserver.Dependencies{
		GetLeaderboard: query.NewGetLeaderboardHandler(standings),
		GetStudent:     query.NewGetStudentHandler(infra.Students, standings),
		GetStudentRank: query.NewGetStudentRankHandler(standings),

		EnsureStudent:  command.NewEnsureStudentHandler(infra.Students, infra.Bus),
		UpdateProfile:  command.NewUpdateProfileHandler(infra.Students, infra.Bus),
		AwardPoints:    command.NewAwardPointsHandler(appender),
		RecordActivity: command.NewRecordActivityHandler(appender),

		Logger: log,
	}

	if cfg.Features.IsEnabled(config.FeatureEvents) {
		deps.ListEvents = query.NewListEventsHandler(infra.Events)
		deps.UpcomingEvents = query.NewUpcomingEventsHandler(infra.Events)
		deps.AddEvent = command.NewAddEventHandler(infra.Events, infra.Bus)
		deps.DeleteEvent = command.NewDeleteEventHandler(infra.Events, infra.Bus)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ВНЕШНИЕ КЛИЕНТЫ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Features.IsEnabled(config.FeatureLeetCodeDaily) {
		deps.GetDailyProblem = query.NewGetDailyProblemHandler(newLeetCodeClient(cfg, log))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := httpserver.NewHealthChecker(cfg.App.Version)
	for name, check := range infra.Checks {
		health.AddCheck(name, check)
	}
	deps.Health = health

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	hc := httpConfig(cfg)
	srv := httpserver.NewServer(hc, deps)
	errCh := srv.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("1board API is running", logger.String("address", hc.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server error", logger.Err(err))
			return err
		}
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		log.Warn("shutdown completed with errors")
		return nil
	}

	// Шина событий и соединения закроются через defer
	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func httpConfig(cfg *config.Config) httpserver.Config {
	hc := httpserver.DefaultConfig()
	hc.Host = cfg.HTTP.Host
	hc.Port = cfg.HTTP.Port
	hc.ReadTimeout = cfg.HTTP.ReadTimeout
	hc.WriteTimeout = cfg.HTTP.WriteTimeout
	hc.IdleTimeout = cfg.HTTP.IdleTimeout
	hc.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	hc.AllowedOrigins = cfg.HTTP.AllowedOrigins
	hc.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	hc.AdminKeyHash = cfg.Admin.APIKeyHash
	return hc
}

func newLeetCodeClient(cfg *config.Config, log *logger.Logger) *leetcode.Client {
	breaker := circuitbreaker.DefaultSettings("leetcode")
	breaker.FailureThreshold = cfg.LeetCode.BreakerThreshold
	breaker.CoolDown = cfg.LeetCode.BreakerCoolDown
	breaker.OnStateChange = func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}

	lc := leetcode.DefaultConfig()
	lc.Endpoint = cfg.LeetCode.Endpoint
	lc.Timeout = cfg.LeetCode.Timeout
	lc.MaxAttempts = cfg.LeetCode.MaxAttempts
	lc.CacheTTL = cfg.LeetCode.CacheTTL
	lc.Breaker = breaker
	lc.Logger = log
	return leetcode.NewClient(lc)
}
