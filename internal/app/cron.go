package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/storyseed/core/internal/config"
	"github.com/storyseed/core/internal/modules/backup"
	"github.com/storyseed/core/internal/modules/dailyprompt"
	pkgcron "github.com/storyseed/core/internal/pkg/cron"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(
	sched *pkgcron.Scheduler,
	cycle *dailyprompt.Cycle,
	backupSvc *backup.Service,
	cfg *config.AppConfig,
	logger *zap.Logger,
) {
	cronLogger := logger.Named("cron")

	sched.Register(pkgcron.Job{
		Name:        "daily_prompts_cycle",
		Description: "Deliver daily prompts to users whose local send hour has arrived",
		Interval:    time.Hour,
		RunAtStart:  true,
		Fn: func(ctx context.Context) error {
			if err := cycle.ProcessDeliveryCycle(ctx); err != nil {
				cronLogger.Warn("delivery cycle failed", zap.Error(err))
				return err
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "streak_warning",
		Description: "Warn users at risk of losing their streak",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			return cycle.ProcessStreakWarnings(ctx)
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "cleanup_delivery_logs",
		Description: "Purge delivery records past the retention window",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			return cycle.CleanupOldLogs(ctx)
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "auto_backup",
		Description: "Back up the database locally and, if configured, to S3",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			return backupSvc.AutoBackup(ctx)
		},
	})
}

// scheduleDevDryRun reports what the next delivery cycle would do, shortly
// after startup. Dev convenience only, never sends anything.
func scheduleDevDryRun(ctx context.Context, cycle *dailyprompt.Cycle, logger *zap.Logger) {
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
			if err := cycle.DryRun(ctx); err != nil {
				logger.Warn("dry run failed", zap.Error(err))
			}
		}
	}()
}
