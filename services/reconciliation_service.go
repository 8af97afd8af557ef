package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/anjiri1684/vedic_numerology/payments"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxTaskAttempts is how often a task is retried before it is marked failed
// and left for a human.
const MaxTaskAttempts = 20

type RetrySummary struct {
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
	GaveUp   int `json:"gave_up"`
}

// RetryOpenTasks replays the bookkeeping recorded in open reconciliation
// tasks. Orphan payments are never retried automatically.
func RetryOpenTasks(ctx context.Context, db *gorm.DB) (RetrySummary, error) {
	var summary RetrySummary

	var tasks []models.ReconciliationTask
	err := db.WithContext(ctx).
		Where("status = ? AND kind <> ? AND attempts < ?", models.TaskStatusOpen, models.TaskKindOrphanPayment, MaxTaskAttempts).
		Order("created_at asc").
		Limit(100).
		Find(&tasks).Error
	if err != nil {
		return summary, fmt.Errorf("load open reconciliation tasks: %w", err)
	}

	for i := range tasks {
		task := &tasks[i]
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		runErr := retryTask(ctx, db, task)
		if errors.Is(runErr, errSkipTask) {
			summary.Skipped++
			continue
		}

		attempts := task.Attempts + 1
		updates := map[string]interface{}{"attempts": attempts}
		switch {
		case runErr != nil && attempts >= MaxTaskAttempts:
			summary.Failed++
			summary.GaveUp++
			updates["last_error"] = runErr.Error()
			updates["status"] = models.TaskStatusFailed
			zap.L().Error("🔥 reconciliation task gave up, needs manual review",
				zap.String("kind", task.Kind), zap.String("payment_id", task.PaymentID),
				zap.Int("attempts", attempts), zap.Error(runErr))
		case runErr != nil:
			summary.Failed++
			updates["last_error"] = runErr.Error()
			zap.L().Warn("reconciliation task still failing",
				zap.String("kind", task.Kind), zap.String("payment_id", task.PaymentID), zap.Error(runErr))
		default:
			summary.Resolved++
			updates["status"] = models.TaskStatusResolved
			updates["resolved_at"] = time.Now()
			updates["last_error"] = ""
		}
		if err := db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
			return summary, fmt.Errorf("update reconciliation task %s: %w", task.ID, err)
		}
	}
	return summary, nil
}

var errSkipTask = errors.New("task needs manual review")

func retryTask(ctx context.Context, db *gorm.DB, task *models.ReconciliationTask) error {
	report, err := GetReport(ctx, db, task.ReportID)
	if err != nil {
		return err
	}

	switch task.Kind {
	case models.TaskKindReportStatus:
		if report.IsPaid() {
			if report.PaymentID != nil && *report.PaymentID == task.PaymentID {
				return nil
			}
			return errSkipTask
		}
		updated, err := markReportCompleted(ctx, db, report.ID, task.PaymentID, "")
		if err != nil {
			return err
		}
		if !updated {
			return errors.New("report left pending state before retry")
		}
		return nil

	case models.TaskKindOrder:
		_, err := CreateOrderForPayment(ctx, db, OrderInput{
			UserID:        task.UserID,
			ReportID:      report.ID,
			CustomerName:  report.FullName,
			CustomerEmail: report.Email,
			CustomerPhone: report.Phone,
			Amount:        report.Amount,
			Currency:      report.Currency,
			PaymentID:     task.PaymentID,
		})
		return err

	case models.TaskKindPaymentHistory:
		if task.UserID == nil {
			return nil
		}
		_, err := RecordPaymentHistory(ctx, db, HistoryInput{
			UserID:    *task.UserID,
			ReportID:  report.ID,
			PaymentID: task.PaymentID,
			Amount:    report.Amount,
			Currency:  report.Currency,
		})
		return err
	}
	return errSkipTask
}

type CrossCheckSummary struct {
	Checked     int `json:"checked"`
	Queued      int `json:"queued"`
	NotCaptured int `json:"not_captured"`
}

// CrossCheckGateway looks at completed reports paid since the given time that
// have no order and asks the gateway whether the payment really was captured.
// Captured payments get an order task; anything else is logged for review.
func CrossCheckGateway(ctx context.Context, db *gorm.DB, gateway payments.Gateway, since time.Time, limit int) (CrossCheckSummary, error) {
	var summary CrossCheckSummary
	if limit <= 0 {
		limit = 50
	}

	var reports []models.NumerologyReport
	err := db.WithContext(ctx).
		Where("payment_status = ? AND payment_id IS NOT NULL AND paid_at >= ?", models.PaymentStatusCompleted, since).
		Where("NOT EXISTS (SELECT 1 FROM orders WHERE orders.payment_id = numerology_reports.payment_id)").
		Order("paid_at asc").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return summary, fmt.Errorf("find completed reports without orders: %w", err)
	}

	for _, report := range reports {
		summary.Checked++
		paymentID := *report.PaymentID

		if gateway != nil {
			payment, err := gateway.FetchPayment(ctx, paymentID)
			if err != nil {
				zap.L().Warn("gateway lookup failed during cross-check", zap.String("payment_id", paymentID), zap.Error(err))
				continue
			}
			if !payment.Captured() {
				summary.NotCaptured++
				zap.L().Error("🔥 report completed but payment not captured at gateway",
					zap.String("payment_id", paymentID), zap.String("gateway_status", payment.Status), zap.Stringer("report_id", report.ID))
				continue
			}
		}

		if err := QueueReconciliationTask(ctx, db, models.TaskKindOrder, paymentID, report.ID, report.UserID, errors.New("order missing for completed report")); err != nil {
			return summary, err
		}
		summary.Queued++
	}
	return summary, nil
}

func ListReconciliationTasks(ctx context.Context, db *gorm.DB, status string) ([]models.ReconciliationTask, error) {
	q := db.WithContext(ctx).Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var tasks []models.ReconciliationTask
	if err := q.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
