package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const DefaultReconcileSchedule = "*/10 * * * *"

type reconcileRunner interface {
	Run(ctx context.Context) (int64, error)
}

// StartReconcileScheduler menjalankan rekonsiliasi payment_status promoted poll sesuai jadwal cron.
// Run yang masih berjalan tidak ditumpuk (SkipIfStillRunning). Caller wajib Stop() saat shutdown.
func StartReconcileScheduler(r reconcileRunner, schedule string, timeout time.Duration) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := r.Run(ctx); err != nil {
			log.Printf("[RECONCILE] run gagal: %v", err)
		}
	}); err != nil {
		return nil, err
	}

	log.Printf("[RECONCILE] started schedule=%q timeout=%s", schedule, timeout)
	c.Start()
	return c, nil
}
