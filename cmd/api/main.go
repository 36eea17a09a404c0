package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repair_backend/internal/adapters"
	"repair_backend/internal/adapters/storage"
	"repair_backend/internal/appointments"
	apptdomain "repair_backend/internal/appointments/domain"
	"repair_backend/internal/email"
	"repair_backend/internal/events"
	apphttp "repair_backend/internal/http"
	"repair_backend/internal/http/router"
	"repair_backend/internal/notification"
	"repair_backend/internal/pricing"
	"repair_backend/internal/repairs"
	repairsvc "repair_backend/internal/repairs/service"
	"repair_backend/internal/scheduler"
	"repair_backend/internal/technicians"
	"repair_backend/migrations"
	"repair_backend/platform/config"
	"repair_backend/platform/db"
	"repair_backend/platform/logger"
	"repair_backend/platform/telemetry"
	"repair_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.GetHTTPAddr())

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

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reminderClient, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	photoStorage := initStorage(ctx, cfg, log)

	costs, err := pricing.Default()
	if err != nil {
		log.Error("failed to load pricing table", "error", err)
		panic("failed to load pricing table: " + err.Error())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	loc := cfg.GetSchedulingLocation()
	technicianModule := technicians.NewModule(pool, val, loc, cfg.GetPhoneDefaultRegion())
	repairsModule := repairs.NewModule(pool, costs, photoStorage, cfg.GetMinioBucketRepairPhotos(), eventBus, val, log, repairsvc.Policy{
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

	// Anti-Corruption Layer: repairs only sees its own suggester and lookup ports
	repairsModule.Service.SetTechnicianSuggester(adapters.NewTechnicianSuggester(technicianModule.Service))
	repairsModule.Service.SetTechnicianLookup(adapters.NewTechnicianLookup(technicianModule.Service))
	if reminderClient != nil {
		appointmentsModule.Service.SetReminderScheduler(reminderClient)
	}

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(appointmentsModule.Service, newSender(cfg, log), log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			technicianModule,
			repairsModule,
			appointmentsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           otelhttp.NewHandler(router.New(app), cfg.GetServiceName()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// Let in-flight notification handlers finish before the pool closes.
		eventBus.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
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

// initStorage returns nil when MinIO is not configured so photo routes stay off.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.StorageService {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; repair photos disabled")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	bucket := cfg.GetMinioBucketRepairPhotos()
	if err := withRetry(ctx, log, "ensure repair photos bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "repairPhotosBucket", bucket)
	return storageSvc
}

func initReminderScheduler(cfg *config.Config, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; appointment reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg, cfg.GetReminderLeadTime())
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
