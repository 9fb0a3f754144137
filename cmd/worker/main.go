package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/toyloft/backend-toyloft/internal/common"
	"github.com/toyloft/backend-toyloft/internal/config"
	"github.com/toyloft/backend-toyloft/internal/db"
	"github.com/toyloft/backend-toyloft/internal/notify"
	"github.com/toyloft/backend-toyloft/internal/obs"
	"github.com/toyloft/backend-toyloft/internal/rental"
)

// The worker owns everything that runs outside a request: today that is
// the nightly rental due-date reminder scan.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().
		Str("env", cfg.AppEnv).
		Str("component", "worker").
		Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "toyloft"), nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, queries := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	windowDays := int(cfg.RentalReminderLeadTime / (24 * time.Hour))
	if windowDays < 1 {
		windowDays = 1
	}
	var mailer common.EmailSender = common.NopEmailSender{}
	if cfg.NotifyEmailEnabled {
		mailer = notify.LogEmailSender{From: cfg.NotifyEmailFrom, Logger: logger}
	}
	reminder := &rental.Reminder{
		Store:  queries,
		Email:  mailer,
		Logger: logger,
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(rental.TaskTypeDueReminder, reminder.ProcessTask)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Logger:      asynqLogger{logger},
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: asynqLogger{logger},
	})
	task, err := rental.NewDueReminderTask(windowDays)
	if err != nil {
		logger.Fatal().Err(err).Msg("build reminder task")
	}
	cronSpec := envOrDefault("RENTAL_REMINDER_CRON", "0 2 * * *")
	if _, err := scheduler.Register(cronSpec, task); err != nil {
		logger.Fatal().Err(err).Msg("register reminder schedule")
	}

	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}
	logger.Info().Str("cron", cronSpec).Int("window_days", windowDays).Msg("worker started")

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	scheduler.Shutdown()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, *db.Queries) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool, db.New(pool)
}

// asynqLogger adapts zerolog to the asynq logging interface.
type asynqLogger struct {
	logger zerolog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.logger.Debug().Msg(sprint(args...)) }
func (l asynqLogger) Info(args ...any)  { l.logger.Info().Msg(sprint(args...)) }
func (l asynqLogger) Warn(args ...any)  { l.logger.Warn().Msg(sprint(args...)) }
func (l asynqLogger) Error(args ...any) { l.logger.Error().Msg(sprint(args...)) }
func (l asynqLogger) Fatal(args ...any) { l.logger.Fatal().Msg(sprint(args...)) }

func sprint(args ...any) string {
	return strings.TrimSpace(fmt.Sprintln(args...))
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
