// Package bootstrap собирает инфраструктуру, общую для server и worker:
// логгер, хранилище студентов и событий, кеш лидерборда и шину событий.
//
// Без DATABASE_URL используется in-memory хранилище, без Redis - локальная
// шина и работа без кеша.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/nexus-academicus/1board/config"
	"github.com/nexus-academicus/1board/internal/application/eventhandler"
	"github.com/nexus-academicus/1board/internal/domain/achievement"
	"github.com/nexus-academicus/1board/internal/domain/event"
	"github.com/nexus-academicus/1board/internal/domain/leaderboard"
	"github.com/nexus-academicus/1board/internal/domain/shared"
	"github.com/nexus-academicus/1board/internal/domain/student"
	"github.com/nexus-academicus/1board/internal/infrastructure/messaging"
	"github.com/nexus-academicus/1board/internal/infrastructure/persistence/memory"
	"github.com/nexus-academicus/1board/internal/infrastructure/persistence/postgres"
	"github.com/nexus-academicus/1board/internal/infrastructure/persistence/redis"
	"github.com/nexus-academicus/1board/pkg/logger"
)

// Infrastructure - собранные зависимости процесса.
type Infrastructure struct {
	Config *config.Config
	Logger *logger.Logger

	Students student.Repository
	Events   event.Repository

	// Cache равен nil, если Redis недоступен или кеш выключен.
	Cache leaderboard.Cache

	Bus    shared.EventBus
	View   *leaderboard.View
	Engine *achievement.Engine

	// Checks - проверки зависимостей для /ready.
	Checks map[string]func(ctx context.Context) error

	closers []func()
}

// NewLogger создаёт логгер из настроек наблюдаемости.
func NewLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.LogAddCaller,
	}).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
}

// New подключает хранилище, Redis и шину событий. При ошибке уже
// открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (_ *Infrastructure, err error) {
	infra := &Infrastructure{
		Config: cfg,
		Logger: log,
		View:   leaderboard.NewView(leaderboard.Config{AdminIdentity: shared.Identity(cfg.Leaderboard.AdminIdentity)}),
		Engine: achievement.NewEngine(cfg.Leaderboard.StickyAchievements),
		Checks: make(map[string]func(ctx context.Context) error),
	}
	defer func() {
		if err != nil {
			infra.Close()
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 1. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	if err := infra.setupStorage(ctx); err != nil {
		return nil, err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	rc := infra.setupRedis(ctx)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ШИНА СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if err := infra.setupBus(rc); err != nil {
		return nil, err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ПОДПИСЧИКИ
	// ─────────────────────────────────────────────────────────────────────────
	if infra.Cache != nil {
		if err := eventhandler.NewOnStandingsChangedHandler(infra.Cache, log).Register(infra.Bus); err != nil {
			return nil, err
		}
	}
	if err := eventhandler.NewOnAchievementsChangedHandler(log).Register(infra.Bus); err != nil {
		return nil, err
	}

	return infra, nil
}

func (i *Infrastructure) setupStorage(ctx context.Context) error {
	cfg := i.Config.Database
	if cfg.InMemory() {
		i.Logger.Warn("DATABASE_URL is not set, using in-memory storage")
		i.Students = memory.NewStudentStore()
		i.Events = memory.NewEventStore()
		return nil
	}

	opts := postgres.DefaultPoolOptions()
	opts.MaxConns = int32(cfg.MaxConns)
	opts.MinConns = int32(cfg.MinConns)
	opts.MaxConnLifetime = cfg.ConnMaxLifetime
	opts.MaxConnIdleTime = cfg.ConnMaxIdleTime

	i.Logger.Info("connecting to database...")
	conn, err := postgres.NewConnectionFromURL(ctx, cfg.URL, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	i.closers = append(i.closers, conn.Close)
	i.Checks["postgres"] = conn.Ping

	if cfg.AutoMigrate {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		i.Logger.Info("database schema is up to date")
	}

	i.Students = postgres.NewStudentRepository(conn)
	i.Events = postgres.NewEventRepository(conn)
	return nil
}

func (i *Infrastructure) setupRedis(ctx context.Context) *redis.Cache {
	cfg := i.Config.Redis
	if cfg.Disabled {
		i.Logger.Info("Redis disabled, leaderboard cache and event relay are off")
		return nil
	}

	rcfg := redis.DefaultConfig()
	rcfg.URL = cfg.URL
	rcfg.Host = cfg.Host
	rcfg.Port = cfg.Port
	rcfg.Password = cfg.Password
	rcfg.DB = cfg.DB
	rcfg.PoolSize = cfg.PoolSize
	rcfg.MinIdleConns = cfg.MinIdleConns
	rcfg.DialTimeout = cfg.DialTimeout
	rcfg.ReadTimeout = cfg.ReadTimeout
	rcfg.WriteTimeout = cfg.WriteTimeout

	cache, err := redis.NewCache(ctx, rcfg)
	if err != nil {
		i.Logger.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		return nil
	}
	i.closers = append(i.closers, func() { _ = cache.Close() })
	i.Checks["redis"] = cache.Ping

	if i.Config.Features.IsEnabled(config.FeatureLeaderboardCache) {
		i.Cache = redis.NewLeaderboardCache(cache, i.Config.Leaderboard.CacheTTL)
	}
	i.Logger.Info("Redis connection established")
	return cache
}

func (i *Infrastructure) setupBus(rc *redis.Cache) error {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = i.Logger

	if rc == nil || !i.Config.Features.IsEnabled(config.FeatureRedisEventRelay) {
		bus := messaging.NewInMemoryEventBus(local)
		i.closers = append(i.closers, func() { _ = bus.Close() })
		i.Bus = bus
		return nil
	}

	bus, err := messaging.NewRedisEventBus(messaging.NewGoRedisClient(rc.Client()), messaging.RedisEventBusConfig{
		Local:  local,
		Logger: i.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start event relay: %w", err)
	}
	i.closers = append(i.closers, func() { _ = bus.Close() })
	i.Bus = bus
	i.Logger.Info("event relay started", logger.String("instance_id", bus.InstanceID()))
	return nil
}

// Close освобождает ресурсы в обратном порядке.
func (i *Infrastructure) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
	i.closers = nil
}
