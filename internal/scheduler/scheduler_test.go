package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"repair_backend/internal/events"
	"repair_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const scheduledKey = "asynq:{default}:scheduled"

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := newClient(asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()}), "default", 24*time.Hour)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func scheduledCount(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	if !mr.Exists(scheduledKey) {
		return 0
	}
	members, err := mr.ZMembers(scheduledKey)
	if err != nil {
		t.Fatalf("ZMembers: %v", err)
	}
	return len(members)
}

// The enqueue tests run on the real clock: asynq compares ProcessAt with
// time.Now when it decides between the scheduled and pending sets.
func TestScheduleReminderEnqueuesOnce(t *testing.T) {
	c, mr := newTestClient(t)
	now := time.Now().Truncate(time.Second)
	c.now = func() time.Time { return now }

	id := uuid.New()
	slotStart := now.Add(48 * time.Hour)

	if err := c.ScheduleReminder(context.Background(), id, slotStart); err != nil {
		t.Fatalf("ScheduleReminder() error = %v", err)
	}
	if err := c.ScheduleReminder(context.Background(), id, slotStart); err != nil {
		t.Fatalf("second ScheduleReminder() error = %v", err)
	}

	if got := scheduledCount(t, mr); got != 1 {
		t.Fatalf("scheduled tasks = %d, want 1", got)
	}

	score, err := mr.ZScore(scheduledKey, reminderTaskID(id))
	if err != nil {
		t.Fatalf("ZScore: %v", err)
	}
	if want := float64(slotStart.Add(-24 * time.Hour).Unix()); score != want {
		t.Fatalf("run at = %v, want %v", score, want)
	}
}

func TestScheduleReminderSkipsPastRunTime(t *testing.T) {
	c, mr := newTestClient(t)
	now := time.Now().Truncate(time.Second)
	c.now = func() time.Time { return now }

	// Less than a day away, so the run time is already past.
	slotStart := now.Add(23 * time.Hour)
	if err := c.ScheduleReminder(context.Background(), uuid.New(), slotStart); err != nil {
		t.Fatalf("ScheduleReminder() error = %v", err)
	}
	if got := scheduledCount(t, mr); got != 0 {
		t.Fatalf("scheduled tasks = %d, want 0", got)
	}
}

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	if err := c.ScheduleReminder(context.Background(), uuid.New(), time.Now().Add(48*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

type stubChecker struct {
	active bool
	err    error
}

func (s stubChecker) IsActive(context.Context, uuid.UUID) (bool, error) {
	return s.active, s.err
}

func newTestWorker(checks ActiveChecker) (*Worker, *events.InMemoryBus, *[]uuid.UUID) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	var fired []uuid.UUID
	bus.Subscribe(events.NameAppointmentReminderDue, events.HandlerFunc(func(_ context.Context, e events.Event) error {
		fired = append(fired, e.(events.AppointmentReminderDue).AppointmentID)
		return nil
	}))
	now := func() time.Time { return workerNow }
	return &Worker{checks: checks, bus: bus, log: log, now: now}, bus, &fired
}

var (
	workerNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	visitAt   = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
)

func reminderTask(t *testing.T, id uuid.UUID, slotStart time.Time) *asynq.Task {
	t.Helper()
	task, err := newReminderTask(id, slotStart)
	if err != nil {
		t.Fatal(err)
	}
	return task
}

func TestReminderFiresForActiveAppointment(t *testing.T) {
	w, _, fired := newTestWorker(stubChecker{active: true})
	id := uuid.New()

	if err := w.handleAppointmentReminder(context.Background(), reminderTask(t, id, visitAt)); err != nil {
		t.Fatalf("handle error = %v", err)
	}
	if len(*fired) != 1 || (*fired)[0] != id {
		t.Fatalf("fired = %v, want [%s]", *fired, id)
	}
}

func TestReminderSkipsInactiveAppointment(t *testing.T) {
	w, _, fired := newTestWorker(stubChecker{active: false})

	if err := w.handleAppointmentReminder(context.Background(), reminderTask(t, uuid.New(), visitAt)); err != nil {
		t.Fatalf("handle error = %v", err)
	}
	if len(*fired) != 0 {
		t.Fatalf("reminder must not fire for a cancelled appointment")
	}
}

func TestReminderSkipsVisitThatAlreadyStarted(t *testing.T) {
	w, _, fired := newTestWorker(stubChecker{active: true})

	if err := w.handleAppointmentReminder(context.Background(), reminderTask(t, uuid.New(), workerNow)); err != nil {
		t.Fatalf("handle error = %v", err)
	}
	if len(*fired) != 0 {
		t.Fatalf("late reminder must be dropped")
	}
}

func TestReminderErrors(t *testing.T) {
	w, _, _ := newTestWorker(stubChecker{err: errors.New("db down")})
	if err := w.handleAppointmentReminder(context.Background(), reminderTask(t, uuid.New(), visitAt)); err == nil {
		t.Fatal("lookup failures must be retried")
	}

	for name, payload := range map[string]string{
		"not json":   "{",
		"bad uuid":   `{"appointmentId":"not-a-uuid"}`,
		"missing id": `{"slotStart":"2026-03-11T10:00:00Z"}`,
	} {
		err := w.handleAppointmentReminder(context.Background(), asynq.NewTask(TaskAppointmentReminder, []byte(payload)))
		if !errors.Is(err, asynq.SkipRetry) {
			t.Errorf("%s: error = %v, want SkipRetry", name, err)
		}
	}
}
