package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskAppointmentReminder is the asynq task type of a customer reminder.
const TaskAppointmentReminder = "appointments.reminder"

type reminderPayload struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	SlotStart     time.Time `json:"slotStart"`
}

func newReminderTask(appointmentID uuid.UUID, slotStart time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(reminderPayload{AppointmentID: appointmentID, SlotStart: slotStart})
	if err != nil {
		return nil, fmt.Errorf("encode reminder payload: %w", err)
	}
	return asynq.NewTask(TaskAppointmentReminder, data), nil
}

// A payload that cannot be decoded will never succeed, so it is not retried.
func parseReminderTask(task *asynq.Task) (reminderPayload, error) {
	var p reminderPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return reminderPayload{}, fmt.Errorf("decode reminder payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.AppointmentID == uuid.Nil {
		return reminderPayload{}, fmt.Errorf("reminder payload without appointment id: %w", asynq.SkipRetry)
	}
	return p, nil
}

// reminderTaskID makes enqueueing idempotent per appointment.
func reminderTaskID(appointmentID uuid.UUID) string {
	return "reminder:" + appointmentID.String()
}
