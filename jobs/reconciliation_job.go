package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/anjiri1684/vedic_numerology/database"
	"github.com/anjiri1684/vedic_numerology/payments"
	"github.com/anjiri1684/vedic_numerology/services"
	"go.uber.org/zap"
)

var reconcileMu sync.Mutex

// ReconcilePayments retries open reconciliation tasks and then cross-checks
// the last day of completed reports against the gateway.
func ReconcilePayments() {
	if !reconcileMu.TryLock() {
		zap.L().Debug("reconciliation still running, skipping this tick")
		return
	}
	defer reconcileMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	zap.L().Debug("Running job: ReconcilePayments...")

	retried, err := services.RetryOpenTasks(ctx, database.DB)
	if err != nil {
		zap.L().Error("🔥 Error retrying reconciliation tasks", zap.Error(err))
		return
	}

	checked, err := services.CrossCheckGateway(ctx, database.DB, payments.Provider, time.Now().Add(-24*time.Hour), 50)
	if err != nil {
		zap.L().Error("🔥 Error cross-checking gateway payments", zap.Error(err))
		return
	}

	if retried.Resolved+retried.Failed+checked.Queued+checked.NotCaptured > 0 {
		zap.L().Info("reconciliation run finished",
			zap.Int("resolved", retried.Resolved),
			zap.Int("still_failing", retried.Failed),
			zap.Int("queued", checked.Queued),
			zap.Int("not_captured", checked.NotCaptured))
	}
}
