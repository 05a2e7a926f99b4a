package scheduler

import (
	"context"
	"time"

	"workflow_portal_backend/platform/logger"
)

// RollupDispatcher enqueues the analytics rollup for the previous day once
// per day, shortly after midnight UTC.
type RollupDispatcher struct {
	client *Client
	log    *logger.Logger
}

func NewRollupDispatcher(client *Client, log *logger.Logger) *RollupDispatcher {
	return &RollupDispatcher{client: client, log: log}
}

func (d *RollupDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	for {
		now := time.Now().UTC()
		next := now.Truncate(24 * time.Hour).Add(24*time.Hour + 5*time.Minute)

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}

		day := next.Truncate(24 * time.Hour).AddDate(0, 0, -1)
		if err := d.client.ScheduleAnalyticsRollup(ctx, day, time.Now()); err != nil {
			d.log.Warn("rollup enqueue failed", "day", day.Format("2006-01-02"), "error", err)
		}
	}
}
