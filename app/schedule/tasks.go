// Package schedule registers the recurring background tasks.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/poppys-produce/backend/app/repositories"
	"github.com/poppys-produce/backend/pkg/collection"
	"github.com/poppys-produce/backend/pkg/logger"
	"github.com/poppys-produce/backend/pkg/metrics"
	"github.com/poppys-produce/backend/pkg/notification"
	sched "github.com/poppys-produce/backend/pkg/schedule"
	"github.com/poppys-produce/backend/pkg/workerpool"
)

const (
	orderRetentionDays = 40
	pushBatchSize      = 100 // Expo's per-request message cap
)

// Register adds every recurring task to the scheduler. Call once at boot,
// then sched.Start(ctx).
func Register() {
	sched.Daily().At("03:00").Name("orders:cleanup").WithoutOverlapping().Run(cleanupOldOrders)

	// One hour and ten minutes before the default 21:00 cutoff. Duplicate
	// sends across restarts are tolerated; the reminder is advisory.
	sched.Cron("0 20 * * *").Name("intake:warn-1h").Run(func() { sendIntakeWarning(60) })
	sched.Cron("50 20 * * *").Name("intake:warn-10m").Run(func() { sendIntakeWarning(10) })
}

// cleanupOldOrders deletes orders past the retention window. Safe to run
// repeatedly; a second pass finds nothing.
func cleanupOldOrders() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -orderRetentionDays)
	n, err := repositories.NewOrderRepository().DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		logger.Error("schedule: order cleanup failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("schedule: deleted old orders", "count", n, "olderThanDays", orderRetentionDays)
	}
}

// sendIntakeWarning pushes the closing reminder to every registered device.
func sendIntakeWarning(minutesBefore int) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	settings, err := repositories.NewSettingsRepository().Get(ctx)
	if err != nil {
		logger.Error("schedule: intake warning settings read failed", "error", err)
		return
	}
	if !settings.IsAfterHoursEnabled {
		return
	}

	tokens, err := repositories.NewUserRepository().AllPushTokens(ctx)
	if err != nil {
		logger.Error("schedule: intake warning token fetch failed", "error", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	body := fmt.Sprintf("Order intake will be closing in %d minutes at %d:00!",
		minutesBefore, settings.AfterHoursCutoff)

	pool := workerpool.New(4)
	for _, batch := range collection.Chunk(collection.Unique(tokens), pushBatchSize) {
		batch := batch
		if err := pool.SubmitWait(func() {
			err := notification.SendPush(notification.PushData{
				Tokens: batch,
				Title:  "Poppy's Produce Reminder",
				Body:   body,
			})
			if err != nil {
				metrics.PushSent.WithLabelValues("failed").Add(float64(len(batch)))
				logger.Error("schedule: push batch failed", "size", len(batch), "error", err)
				return
			}
			metrics.PushSent.WithLabelValues("success").Add(float64(len(batch)))
		}); err != nil {
			logger.Error("schedule: push submit failed", "error", err)
		}
	}
	pool.Shutdown()
}
