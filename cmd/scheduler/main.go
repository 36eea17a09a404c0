package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repair_backend/internal/adapters"
	"repair_backend/internal/appointments"
	apptdomain "repair_backend/internal/appointments/domain"
	"repair_backend/internal/email"
	"repair_backend/internal/events"
	"repair_backend/internal/notification"
	"repair_backend/internal/outbox"
	"repair_backend/internal/pricing"
	"repair_backend/internal/repairs"
	repairsvc "repair_backend/internal/repairs/service"
	"repair_backend/internal/scheduler"
	"repair_backend/internal/technicians"
	"repair_backend/platform/config"
	"repair_backend/platform/db"
	"repair_backend/platform/logger"
	"repair_backend/platform/telemetry"
	"repair_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize tracing", "error", err)
		panic("failed to initialize tracing: " + err.Error())
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	costs, err := pricing.Default()
	if err != nil {
		log.Error("failed to load pricing table", "error", err)
		panic("failed to load pricing table: " + err.Error())
	}

	// Worker-side wiring: the reminder handler reads appointments through the
	// same services the API uses, without HTTP handlers.
	loc := cfg.GetSchedulingLocation()
	technicianModule := technicians.NewModule(pool, val, loc, cfg.GetPhoneDefaultRegion())
	repairsModule := repairs.NewModule(pool, costs, nil, "", eventBus, val, log, repairsvc.Policy{
		Location:           loc,
		CancellationCutoff: cfg.GetCancellationCutoff(),
		PhoneRegion:        cfg.GetPhoneDefaultRegion(),
	})
	appointmentsModule := appointments.NewModule(
		pool,
		adapters.NewAppointmentRepairReader(repairsModule.Service),
		adapters.NewAppointmentTechnicianReader(technicianModule.Service),
		eventBus,
		val,
		log,
		apptdomain.CancellationPolicy{Cutoff: cfg.GetCancellationCutoff(), Location: loc},
	)

	notificationModule := notification.New(appointmentsModule.Service, newSender(cfg, log), log)
	notificationModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, appointmentsModule.Service, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	publisher := outbox.NewPublisher(pool, log, outbox.PublisherConfig{
		Brokers:   cfg.GetKafkaBrokers(),
		PollEvery: cfg.GetOutboxPollInterval(),
		BatchSize: cfg.GetOutboxBatchSize(),
	})
	cleanup := scheduler.NewOutboxCleanup(pool, log, time.Hour, 7*24*time.Hour)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return publisher.Run(gctx) })
	g.Go(func() error { return cleanup.Run(gctx) })

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
		os.Exit(1)
	}
	log.Info("scheduler stopped")
}

func newSender(cfg config.EmailConfig, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() {
		log.Warn("SMTP_HOST not configured; customer emails disabled")
		return email.NoopSender{}
	}
	return email.NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
