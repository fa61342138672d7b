package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	applog "storefront/internal/log"
)

// Pruner drops session state untouched since cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneOnce removes sessions idle for longer than ttl.
func PruneOnce(ctx context.Context, p Pruner, ttl time.Duration, now time.Time) (int64, error) {
	n, err := p.Prune(ctx, now.Add(-ttl))
	if err != nil {
		applog.Error(nil, "job.prune.fail", err, nil)
		return 0, err
	}
	applog.Info(nil, "job.prune", map[string]any{"removed": n, "ttl": ttl.String()})
	return n, nil
}

// Start schedules the prune job and starts the scheduler. The caller stops it.
func Start(schedule string, p Pruner, ttl time.Duration) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		_, _ = PruneOnce(context.Background(), p, ttl, time.Now())
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
