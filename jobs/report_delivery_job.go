package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/anjiri1684/vedic_numerology/services"
	"go.uber.org/zap"
)

var deliveryMu sync.Mutex

// Fulfiller is configured by cmd/api at startup.
var Fulfiller *services.ReportFulfiller

func DeliverPaidReports() {
	if Fulfiller == nil {
		return
	}
	if !deliveryMu.TryLock() {
		return
	}
	defer deliveryMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 9*time.Minute)
	defer cancel()

	summary, err := Fulfiller.FulfilPaidReports(ctx, 20)
	if err != nil {
		zap.L().Error("🔥 Error delivering reports", zap.Error(err))
		return
	}
	if summary.Processed == 0 {
		zap.L().Debug("No paid reports waiting for delivery.")
		return
	}
	zap.L().Info("✅ Report delivery run finished",
		zap.Int("processed", summary.Processed),
		zap.Int("delivered", summary.Delivered),
		zap.Int("failed", summary.Failed))
}
