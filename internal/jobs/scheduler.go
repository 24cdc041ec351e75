// Package jobs schedules the periodic maintenance work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"trip-planner/pkg/utils"

	"github.com/robfig/cron/v3"
)

const (
	SessionSweepSpec = "@every 5m"
	HistoryPurgeSpec = "0 3 * * *"

	purgeTimeout = time.Minute
)

// SessionSweeper drops idle sessions. planner.Service satisfies it.
type SessionSweeper interface {
	SweepIdle(maxIdle time.Duration) int
}

// HistoryPurger deletes expired trip history. history.Service satisfies it.
type HistoryPurger interface {
	Purge(ctx context.Context) (int64, error)
}

// NewScheduler registers the jobs on a new cron. purger may be nil when
// history is disabled. The caller starts and stops the returned cron.
func NewScheduler(sweeper SessionSweeper, idleTTL time.Duration, purger HistoryPurger) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(SessionSweepSpec, func() { SweepSessions(sweeper, idleTTL) }); err != nil {
		return nil, fmt.Errorf("jobs.NewScheduler session sweep: %w", err)
	}

	if purger != nil {
		if _, err := c.AddFunc(HistoryPurgeSpec, func() { PurgeHistory(purger) }); err != nil {
			return nil, fmt.Errorf("jobs.NewScheduler history purge: %w", err)
		}
	}
	return c, nil
}

func SweepSessions(sweeper SessionSweeper, idleTTL time.Duration) {
	if n := sweeper.SweepIdle(idleTTL); n > 0 {
		utils.Logger.WithField("dropped", n).Info("Idle sessions swept")
	}
}

func PurgeHistory(purger HistoryPurger) {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()
	if _, err := purger.Purge(ctx); err != nil {
		utils.Logger.WithError(err).Error("Scheduled trip history purge failed")
	}
}
