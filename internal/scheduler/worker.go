package scheduler

import (
	"context"
	"fmt"
	"time"

	"repair_backend/internal/events"
	"repair_backend/platform/config"
	"repair_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ActiveChecker reports whether an appointment still holds its slot.
type ActiveChecker interface {
	IsActive(ctx context.Context, appointmentID uuid.UUID) (bool, error)
}

// Worker executes reminder tasks and raises AppointmentReminderDue on the bus.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	checks ActiveChecker
	bus    events.Bus
	log    *logger.Logger
	now    func() time.Time
}

func NewWorker(cfg config.SchedulerConfig, checks ActiveChecker, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		checks: checks,
		bus:    bus,
		log:    log,
		now:    time.Now,
	}

	mux.HandleFunc(TaskAppointmentReminder, w.handleAppointmentReminder)

	return w, nil
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	if err := w.server.Start(w.mux); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return err
	}
	w.log.Info("scheduler worker started")

	<-ctx.Done()
	w.server.Shutdown()
	w.log.Info("scheduler worker stopped")
	return nil
}

// Reminders for cancelled or finished appointments, and reminders that
// were delayed past the visit itself, are dropped without error.
func (w *Worker) handleAppointmentReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := parseReminderTask(task)
	if err != nil {
		return err
	}

	if !payload.SlotStart.IsZero() && !w.now().Before(payload.SlotStart) {
		w.log.Warn("reminder arrived after the visit started", "appointmentId", payload.AppointmentID)
		return nil
	}

	active, err := w.checks.IsActive(ctx, payload.AppointmentID)
	if err != nil {
		return err
	}
	if !active {
		w.log.Debug("reminder skipped for inactive appointment", "appointmentId", payload.AppointmentID)
		return nil
	}

	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.AppointmentReminderDue{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: payload.AppointmentID,
	})
}
