package scheduler

import (
	"context"
	"time"

	"repair_backend/internal/outbox"
	"repair_backend/platform/db"
	"repair_backend/platform/logger"
)

const (
	defaultOutboxCleanupInterval = time.Hour
	defaultPublishedRetention    = 7 * 24 * time.Hour
)

// OutboxCleanup periodically removes outbox rows that were already delivered.
type OutboxCleanup struct {
	q         db.DBTX
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewOutboxCleanup(q db.DBTX, log *logger.Logger, interval, retention time.Duration) *OutboxCleanup {
	if interval <= 0 {
		interval = defaultOutboxCleanupInterval
	}
	if retention <= 0 {
		retention = defaultPublishedRetention
	}

	return &OutboxCleanup{
		q:         q,
		log:       log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (c *OutboxCleanup) Run(ctx context.Context) error {
	if c == nil || c.q == nil {
		return nil
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *OutboxCleanup) cleanup(ctx context.Context) {
	deleted, err := outbox.DeletePublishedBefore(ctx, c.q, c.now().Add(-c.retention))
	if err != nil {
		c.log.Warn("outbox cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("outbox cleanup deleted published events", "deleted", deleted)
	}
}
