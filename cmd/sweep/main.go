package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bavirtual/session-booking/internal/app"
	"github.com/bavirtual/session-booking/internal/config"
	"github.com/bavirtual/session-booking/internal/repository"
	"github.com/bavirtual/session-booking/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting session booking sweep daemon",
		zap.String("environment", cfg.Environment),
		zap.Duration("sweep_interval", cfg.SweepInterval),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	if version, err := migrator.Version(ctx); err == nil {
		logger.Info("Database migrated", zap.Int64("version", version))
	}
	migrator.Close()

	courses := repository.NewCourseRepository(pool)
	students := repository.NewStudentRepository(pool)
	instructors := repository.NewInstructorRepository(pool)
	slots := repository.NewSlotRepository(pool)
	bookings := repository.NewBookingRepository(pool)
	groups := repository.NewGroupRepository(pool)
	enrolments := repository.NewEnrolmentRepository(pool)
	notifications := repository.NewNotificationRepository(pool)

	notifier := service.NewOutboxNotifier(notifications, logger)
	lifecycle := service.NewLifecycle(students, slots, bookings, groups, enrolments, notifier, logger)
	sweep := service.NewSweep(courses, students, instructors, lifecycle, notifier, logger)

	scheduler := app.NewScheduler(sweep, cfg.SweepInterval, logger)
	scheduler.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	scheduler.Stop()
	cancel()
}
