package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"repair_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const defaultReminderLeadTime = 24 * time.Hour

// Client enqueues appointment reminders on the asynq queue.
type Client struct {
	client   *asynq.Client
	queue    string
	leadTime time.Duration
	now      func() time.Time
}

func NewClient(cfg config.SchedulerConfig, leadTime time.Duration) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return newClient(asynq.NewClient(opt), queueName(cfg), leadTime), nil
}

func newClient(client *asynq.Client, queue string, leadTime time.Duration) *Client {
	if leadTime <= 0 {
		leadTime = defaultReminderLeadTime
	}
	return &Client{
		client:   client,
		queue:    queue,
		leadTime: leadTime,
		now:      time.Now,
	}
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleReminder enqueues the reminder for the lead time before slotStart.
// Reminders whose run time already passed are skipped, and a reminder that
// is already queued for the appointment is left as is.
func (c *Client) ScheduleReminder(ctx context.Context, appointmentID uuid.UUID, slotStart time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	runAt := slotStart.Add(-c.leadTime)
	if !runAt.After(c.now()) {
		return nil
	}

	task, err := newReminderTask(appointmentID, slotStart)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(runAt),
		asynq.Queue(c.queue),
		asynq.TaskID(reminderTaskID(appointmentID)),
		asynq.Retention(c.leadTime),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
