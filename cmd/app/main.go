package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-notify-bot/internal/clock"
	"course-notify-bot/internal/config"
	"course-notify-bot/internal/database"
	"course-notify-bot/internal/domain"
	"course-notify-bot/internal/handler"
	"course-notify-bot/internal/repository"
	"course-notify-bot/internal/scheduler"
	"course-notify-bot/internal/transport/console"
	"course-notify-bot/internal/transport/telegram"
	"course-notify-bot/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type repositories struct {
	users       domain.UserRepository
	assignments domain.AssignmentRepository
	activity    domain.ActivityRepository
}

func main() {
	// Логгер
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Конфиг
	if err := config.LoadEnvFile(); err != nil {
		logger.Warnf(".env not found: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("Unknown log level %q, using info", cfg.LogLevel)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("Invalid timezone: %v", err)
	}
	schedule, err := config.LoadSchedule(cfg.ScheduleFile)
	if err != nil {
		logger.Fatalf("Invalid schedule file: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"sessions":       len(schedule.Sessions),
		"special_events": len(schedule.SpecialEvents),
		"timezone":       loc.String(),
	}).Info("Schedule loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Хранилище
	repos, db, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Store initialization failed: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	// Транспорт
	var (
		transport domain.Transport
		gateway   *telegram.Gateway
	)
	switch cfg.Transport {
	case "telegram":
		gateway, err = telegram.NewGateway(cfg.BotToken, logger)
		if err != nil {
			logger.Fatalf("Telegram initialization failed: %v", err)
		}
		transport = gateway
	default:
		transport = console.NewTransport(logger)
	}

	clk := clock.Real()

	// Use Cases
	dispatcher := usecase.NewDispatcher(transport, cfg.SendRatePerSecond, logger)
	// у напоминаний отдельный лимитер: рассылки дайджестов и объявлений не съедают минутный тик
	reminderDispatcher := usecase.NewDispatcher(transport, cfg.SendRatePerSecond, logger)
	moderationUC := usecase.NewModerationUseCase(repos.users, clk, usecase.ModerationConfig{
		MaxWarnings:  cfg.MaxWarnings,
		MuteDuration: cfg.MuteDuration(),
	}, logger)
	userUC := usecase.NewUserUseCase(repos.users, repos.activity, clk, cfg.RequireVerification, logger)
	assignmentUC := usecase.NewAssignmentUseCase(repos.assignments, repos.users, clk)
	announcementUC := usecase.NewAnnouncementUseCase(repos.users, moderationUC, dispatcher, logger)
	weeklyDigest := usecase.NewWeeklyDigest(repos.users, repos.activity, dispatcher, cfg.AdminRecipientIDs, logger)

	// Планировщик
	sched, err := buildScheduler(cfg, loc, schedule, repos, moderationUC, dispatcher, reminderDispatcher, weeklyDigest, clk, logger)
	if err != nil {
		logger.Fatalf("Scheduler configuration failed: %v", err)
	}

	// Echo + Handlers
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(handler.LoggingMiddleware(logger))

	apiHandler := handler.NewAPIHandler(handler.UseCases{
		Users:         userUC,
		Moderation:    moderationUC,
		Assignments:   assignmentUC,
		Announcements: announcementUC,
		Stats:         weeklyDigest,
	}, clk, logger)
	handler.RegisterHandlers(e, apiHandler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gctx)
	})

	g.Go(func() error {
		logger.WithField("port", cfg.ServerPort).Info("Starting HTTP server")
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if gateway != nil {
		poller := telegram.NewPoller(gateway, userUC, moderationUC, assignmentUC,
			usecase.NewConversationStore(time.Duration(cfg.ConversationTTLMinutes)*time.Minute, clk),
			telegram.PollerConfig{SubscriptionCode: cfg.SubscriptionCode},
			logger,
		)
		g.Go(func() error {
			return poller.Run(gctx)
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("Shutdown failed: %v", err)
	}

	logger.Info("Bot exited")
}

func openStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repositories, *sql.DB, error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		mem := repository.NewMemoryDB()
		return repositories{
			users:       repository.NewMemoryUserRepository(mem),
			assignments: repository.NewMemoryAssignmentRepository(mem),
			activity:    repository.NewMemoryActivityRepository(mem),
		}, nil, nil
	}

	db, err := database.NewPostgresDB(ctx, cfg)
	if err != nil {
		return repositories{}, nil, err
	}
	logger.Info("Database connected")

	queries := database.New(db)
	return repositories{
		users:       repository.NewUserRepository(db, queries),
		assignments: repository.NewAssignmentRepository(db, queries),
		activity:    repository.NewActivityRepository(queries),
	}, db, nil
}

func buildScheduler(
	cfg config.Config,
	loc *time.Location,
	schedule config.Schedule,
	repos repositories,
	moderation domain.ModerationUseCase,
	dispatcher domain.Dispatcher,
	reminderDispatcher domain.Dispatcher,
	weeklyDigest *usecase.WeeklyDigest,
	clk clock.Clock,
	logger *logrus.Logger,
) (*scheduler.Scheduler, error) {
	digestHour, digestMinute, err := config.ParseClock(cfg.AssignmentDigestTime)
	if err != nil {
		return nil, err
	}
	weeklyDay, err := config.ParseWeekday(cfg.WeeklyDigestDay)
	if err != nil {
		return nil, err
	}
	weeklyHour, weeklyMinute, err := config.ParseClock(cfg.WeeklyDigestTime)
	if err != nil {
		return nil, err
	}
	cleanupHour, cleanupMinute, err := config.ParseClock(cfg.CleanupTime)
	if err != nil {
		return nil, err
	}

	sweeper := usecase.NewMuteSweeper(repos.users, logger)
	reminder := usecase.NewSessionReminder(schedule.Sessions, schedule.SpecialEvents, loc, repos.users, moderation, reminderDispatcher, logger)
	assignmentDigest := usecase.NewAssignmentDigest(repos.users, repos.assignments, dispatcher, loc, logger)
	welcomeInterval := time.Duration(cfg.WelcomeCheckMinutes) * time.Minute
	welcome := usecase.NewWelcomeJob(repos.users, dispatcher, cfg.CourseName, 24*time.Hour, logger)
	cleanup := usecase.NewCleanupJob(repos.activity, cfg.ActivityRetentionDays, logger)

	sched := scheduler.New(clk, logger)
	sched.Add("mute_sweeper", scheduler.Every(cfg.SweepInterval()), sweeper.Run)
	sched.Add("session_reminder", scheduler.EveryMinute(), reminder.Run)
	sched.Add("assignment_digest", scheduler.DailyAt(digestHour, digestMinute, loc), assignmentDigest.Run)
	sched.Add("weekly_digest", scheduler.WeeklyAt(weeklyDay, weeklyHour, weeklyMinute, loc), weeklyDigest.Run)
	sched.Add("welcome", scheduler.Every(welcomeInterval), welcome.Run)
	sched.Add("activity_cleanup", scheduler.DailyAt(cleanupHour, cleanupMinute, loc), cleanup.Run)
	return sched, nil
}
