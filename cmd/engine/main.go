// Package main - точка входа движка прогресса LingoTrail.
//
// Движок владеет локальным снимком прогресса ученика и синхронизирует
// его с сервером: слияние при входе, fire-and-forget отправка после
// каждой мутации. Локальный снимок - источник истины; сервер - лишь
// резервная копия для восстановления и смены устройства.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries/Sagas)
// - Infrastructure: хранилища снимков, каталоги, шина событий
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	// Application layer
	"github.com/lingotrail/lingotrail-core/internal/application/command"
	"github.com/lingotrail/lingotrail-core/internal/application/eventhandler"
	"github.com/lingotrail/lingotrail-core/internal/application/query"
	"github.com/lingotrail/lingotrail-core/internal/application/saga"

	// Domain layer
	"github.com/lingotrail/lingotrail-core/internal/domain/curriculum"
	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"

	// Infrastructure layer
	"github.com/lingotrail/lingotrail-core/internal/infrastructure/catalog"
	"github.com/lingotrail/lingotrail-core/internal/infrastructure/messaging"
	"github.com/lingotrail/lingotrail-core/internal/infrastructure/persistence/local"
	"github.com/lingotrail/lingotrail-core/internal/infrastructure/remote"
	"github.com/lingotrail/lingotrail-core/internal/infrastructure/scheduler"
	"github.com/lingotrail/lingotrail-core/internal/infrastructure/scheduler/jobs"
	"github.com/lingotrail/lingotrail-core/internal/infrastructure/srs"

	// Packages
	"github.com/lingotrail/lingotrail-core/config"
	"github.com/lingotrail/lingotrail-core/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ЛОГГЕРЫ
	// pkg/logger для application-слоя, slog для инфраструктуры.
	// ─────────────────────────────────────────────────────────────────────────
	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	logOpts.AddCaller = cfg.Observability.LogCaller
	appLog := logger.New(logOpts)

	slogLevel := slog.LevelInfo
	if cfg.App.Debug {
		slogLevel = slog.LevelDebug
	}
	infraLog := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel}))

	appLog.Info("starting engine",
		logger.String("name", cfg.App.Name),
		logger.String("version", cfg.App.Version),
		logger.String("env", string(cfg.App.Environment)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. КАТАЛОГИ КУРСА (YAML, только чтение)
	// ─────────────────────────────────────────────────────────────────────────
	courseCatalog, err := catalog.LoadCurriculum(cfg.Catalog.CurriculumPath)
	if err != nil {
		return fmt.Errorf("failed to load curriculum: %w", err)
	}
	cards, err := catalog.LoadCards(cfg.Catalog.CardsPath)
	if err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}
	scorer, err := catalog.LoadPlacement(cfg.Catalog.PlacementPath)
	if err != nil {
		return fmt.Errorf("failed to load placement bank: %w", err)
	}
	achievements, err := catalog.LoadAchievements(cfg.Catalog.AchievementsPath)
	if err != nil {
		return fmt.Errorf("failed to load achievements: %w", err)
	}
	cardsByCategory := catalog.CardsByCategory(cards)
	resolver := curriculum.NewResolver(courseCatalog)

	appLog.Info("catalogs loaded",
		logger.Int("units", len(courseCatalog.Units())),
		logger.Int("cards", len(cards)))

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЛОКАЛЬНОЕ ХРАНИЛИЩЕ СНИМКОВ (bbolt)
	// ─────────────────────────────────────────────────────────────────────────
	store, err := local.Open(cfg.LocalStore.Path, appLog)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	defer func() {
		appLog.Info("closing local store")
		_ = store.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. СЕРВЕРНОЕ ХРАНИЛИЩЕ СНИМКОВ
	// ─────────────────────────────────────────────────────────────────────────
	remoteStore, cleanup, err := buildRemoteStore(ctx, cfg, infraLog)
	if err != nil {
		return fmt.Errorf("failed to build remote store: %w", err)
	}
	defer cleanup()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ШИНА СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultEventBusConfig()
	busConfig.Logger = infraLog
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		appLog.Info("closing event bus")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ОБРАБОТЧИКИ СОБЫТИЙ
	// Отправка снимков на сервер после каждой мутации.
	// ─────────────────────────────────────────────────────────────────────────
	pushHandler := eventhandler.NewOnStateChangedHandler(
		store, remoteStore, bus, infraLog,
		eventhandler.StateChangedConfig{PushTimeout: cfg.Remote.Timeout})
	if err := pushHandler.Register(bus); err != nil {
		return fmt.Errorf("failed to register push handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION LAYER (Commands, Queries, Sagas)
	// ─────────────────────────────────────────────────────────────────────────
	srsScheduler := srs.NewScheduler()

	syncCmd := command.NewSyncStateHandler(store, remoteStore, bus, appLog)
	startLessonCmd := command.NewStartLessonHandler(store, courseCatalog, resolver, bus)
	completeLessonCmd := command.NewCompleteLessonHandler(store, courseCatalog, resolver, bus)
	completeExerciseCmd := command.NewCompleteExerciseHandler(store, courseCatalog, resolver, bus)
	reviewCardCmd := command.NewReviewCardHandler(store, srsScheduler, bus)
	takePlacementCmd := command.NewTakePlacementHandler(store, scorer, bus)
	grantFreezeCmd := command.NewGrantFreezeHandler(store, bus)

	finishSession := saga.NewFinishSessionFlow(store, achievements, cardsByCategory, bus,
		saga.FinishSessionConfig{
			XPPerCorrectCard: cfg.Session.XPPerCorrectCard,
			PerfectBonus:     cfg.Session.PerfectBonus,
		})

	nextLessonQuery := query.NewGetNextLessonHandler(store, courseCatalog, resolver)
	overviewQuery := query.NewGetUnitOverviewHandler(store, courseCatalog, resolver)
	achievementQuery := query.NewGetAchievementProgressHandler(store, achievements, cardsByCategory)

	engine := &sessionEngine{
		log:              appLog.With(logger.Component("engine")),
		sync:             syncCmd,
		startLesson:      startLessonCmd,
		completeLesson:   completeLessonCmd,
		completeExercise: completeExerciseCmd,
		reviewCard:       reviewCardCmd,
		takePlacement:    takePlacementCmd,
		grantFreeze:      grantFreezeCmd,
		finishSession:    finishSession,
		nextLesson:       nextLessonQuery,
		overview:         overviewQuery,
		achievements:     achievementQuery,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. СЕССИЯ
	// Вход: слияние с сервером, затем сводка состояния. Дальше движок
	// обслуживает вызовы хост-приложения до сигнала завершения.
	// ─────────────────────────────────────────────────────────────────────────
	userID := os.Getenv("ENGINE_USER_ID")
	if userID != "" {
		if err := engine.signIn(ctx, userID); err != nil {
			appLog.Error("sign-in failed", logger.UserID(userID), logger.Err(err))
		}
		if err := startAutoPush(ctx, cfg, store, remoteStore, userID, infraLog); err != nil {
			appLog.Error("auto push disabled", logger.Err(err))
		}
	} else {
		appLog.Info("no ENGINE_USER_ID set, waiting for host calls")
	}

	<-ctx.Done()
	appLog.Info("shutting down")
	return nil
}

// sessionEngine связывает обработчики в один фасад для хост-приложения.
type sessionEngine struct {
	log              *logger.Logger
	sync             *command.SyncStateHandler
	startLesson      *command.StartLessonHandler
	completeLesson   *command.CompleteLessonHandler
	completeExercise *command.CompleteExerciseHandler
	reviewCard       *command.ReviewCardHandler
	takePlacement    *command.TakePlacementHandler
	grantFreeze      *command.GrantFreezeHandler
	finishSession    *saga.FinishSessionFlow
	nextLesson       *query.GetNextLessonHandler
	overview         *query.GetUnitOverviewHandler
	achievements     *query.GetAchievementProgressHandler
}

// signIn выполняет вход: слияние с сервером и сводка состояния.
func (e *sessionEngine) signIn(ctx context.Context, userID string) error {
	syncResult, err := e.sync.Handle(ctx, command.SyncStateCommand{UserID: userID})
	if err != nil {
		return err
	}
	e.log.Info("sync completed",
		logger.UserID(userID),
		logger.Bool("bootstrapped", syncResult.Bootstrapped),
		logger.Bool("remote_unavailable", syncResult.RemoteUnavailable),
		logger.Int("lessons_merged", syncResult.Report.LessonsMerged),
		logger.Int("remote_wins", syncResult.Report.RemoteWins))

	next, err := e.nextLesson.Handle(ctx, query.GetNextLessonQuery{UserID: userID})
	if err != nil {
		return err
	}
	if next.CourseCompleted {
		e.log.Info("course completed", logger.UserID(userID))
		return nil
	}
	e.log.Info("next lesson",
		logger.UserID(userID),
		logger.LessonID(next.Lesson.ID.String()),
		logger.UnitID(next.Lesson.UnitID.String()),
		logger.String("unit_title", next.UnitTitle))
	return nil
}

// startAutoPush запускает фоновую периодическую отправку снимка.
// При нулевом интервале фоновая отправка выключена: снимок и так
// уходит на сервер после каждой мутации.
func startAutoPush(
	ctx context.Context,
	cfg *config.Config,
	store progress.Repository,
	remoteStore progress.RemoteStore,
	userID string,
	log *slog.Logger,
) error {
	if cfg.Remote.AutoPushInterval <= 0 {
		return nil
	}

	uid, err := shared.NewUserID(userID)
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{Logger: log})
	job := jobs.NewAutoPushJob(store, remoteStore, uid, log,
		jobs.AutoPushConfig{PushTimeout: cfg.Remote.Timeout})
	if err := sched.Register(job, scheduler.NewIntervalSchedule(cfg.Remote.AutoPushInterval)); err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = sched.Stop()
	}()
	return nil
}

// buildRemoteStore выбирает реализацию серверного хранилища по конфигу.
func buildRemoteStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (progress.RemoteStore, func(), error) {
	noop := func() {}

	if cfg.Features.IsEnabled(config.FeatureSyncOfflineMode, nil) {
		log.Info("offline mode: remote sync disabled")
		return remote.NewNoopStore(), noop, nil
	}

	switch cfg.Remote.Backend {
	case config.RemoteHTTP:
		httpCfg := remote.DefaultHTTPConfig(cfg.Remote.BaseURL)
		httpCfg.APIKey = cfg.Remote.APIKey
		httpCfg.Timeout = cfg.Remote.Timeout
		httpCfg.BreakerFailures = cfg.Remote.BreakerFailures
		httpCfg.BreakerCooldown = cfg.Remote.BreakerCooldown
		httpCfg.Logger = log
		return remote.NewHTTPStore(httpCfg), noop, nil

	case config.RemoteRedis:
		opts, err := redisOptions(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		client := goredis.NewClient(opts)
		store := remote.NewRedisStore(client)
		if err := store.Ping(ctx); err != nil {
			log.Warn("redis ping failed, pushes will be dropped", "error", err)
		}
		return store, func() { _ = client.Close() }, nil

	case config.RemotePostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse postgres url: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)
		poolCfg.MinConns = int32(cfg.Postgres.MinConns)
		poolCfg.MaxConnLifetime = cfg.Postgres.ConnMaxLifetime
		poolCfg.MaxConnIdleTime = cfg.Postgres.ConnMaxIdleTime
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store, err := remote.NewPGStore(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		return remote.NewNoopStore(), noop, nil
	}
}

func redisOptions(cfg config.RedisConfig) (*goredis.Options, error) {
	if cfg.URL != "" {
		return goredis.ParseURL(cfg.URL)
	}
	return &goredis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
