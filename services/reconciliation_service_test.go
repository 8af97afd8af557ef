package services

import (
	"context"
	"testing"
	"time"

	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/anjiri1684/vedic_numerology/payments"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// paidWithoutOrder simulates a report whose order write was lost entirely.
func paidWithoutOrder(t *testing.T, db *gorm.DB, paymentID string) *models.NumerologyReport {
	t.Helper()
	report, err := CreatePendingReport(context.Background(), db, ashaForm(), nil)
	require.NoError(t, err)
	ok, err := markReportCompleted(context.Background(), db, report.ID, paymentID, "")
	require.NoError(t, err)
	require.True(t, ok)
	return report
}

func TestCrossCheckGateway(t *testing.T) {
	db := newTestEnv(t)
	ctx := context.Background()

	paidWithoutOrder(t, db, "pay_captured")
	paidWithoutOrder(t, db, "pay_authorized")

	gw := &fakeGateway{payments: map[string]*payments.GatewayPayment{
		"pay_captured":   {ID: "pay_captured", Status: "captured"},
		"pay_authorized": {ID: "pay_authorized", Status: "authorized"},
	}}

	summary, err := CrossCheckGateway(ctx, db, gw, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, CrossCheckSummary{Checked: 2, Queued: 1, NotCaptured: 1}, summary)

	tasks, err := ListReconciliationTasks(ctx, db, models.TaskStatusOpen)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "pay_captured", tasks[0].PaymentID)
	assert.Equal(t, models.TaskKindOrder, tasks[0].Kind)

	// queueing is keyed on (kind, payment id)
	_, err = CrossCheckGateway(ctx, db, gw, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	tasks, err = ListReconciliationTasks(ctx, db, "")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	retry, err := RetryOpenTasks(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, RetrySummary{Resolved: 1}, retry)

	summary, err = CrossCheckGateway(ctx, db, gw, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Checked, "only the uncaptured payment is left without an order")
}

func TestRetryOpenTasks_SkipsOrphansAndCountsFailures(t *testing.T) {
	db := newTestEnv(t)
	ctx := context.Background()

	report := paidWithoutOrder(t, db, "pay_one")
	require.NoError(t, QueueReconciliationTask(ctx, db, models.TaskKindOrphanPayment, "pay_two", report.ID, nil, ErrReportAlreadyPaid))
	require.NoError(t, QueueReconciliationTask(ctx, db, models.TaskKindReportStatus, "pay_one", report.ID, nil, nil))

	require.NoError(t, db.Migrator().DropTable(&models.Order{}))
	require.NoError(t, QueueReconciliationTask(ctx, db, models.TaskKindOrder, "pay_one", report.ID, nil, nil))

	summary, err := RetryOpenTasks(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, RetrySummary{Resolved: 1, Failed: 1}, summary)

	var orphan models.ReconciliationTask
	require.NoError(t, db.Where("kind = ?", models.TaskKindOrphanPayment).First(&orphan).Error)
	assert.Equal(t, models.TaskStatusOpen, orphan.Status)
	assert.Zero(t, orphan.Attempts)

	var failed models.ReconciliationTask
	require.NoError(t, db.Where("kind = ?", models.TaskKindOrder).First(&failed).Error)
	assert.Equal(t, 1, failed.Attempts)
	assert.NotEmpty(t, failed.LastError)
}

func TestRetryOpenTasks_MarksExhaustedTaskFailed(t *testing.T) {
	db := newTestEnv(t)
	ctx := context.Background()

	missing := uuid.New()
	require.NoError(t, QueueReconciliationTask(ctx, db, models.TaskKindReportStatus, "pay_lost", missing, nil, nil))
	require.NoError(t, db.Model(&models.ReconciliationTask{}).
		Where("payment_id = ?", "pay_lost").
		Update("attempts", MaxTaskAttempts-1).Error)

	summary, err := RetryOpenTasks(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, RetrySummary{Failed: 1, GaveUp: 1}, summary)

	var task models.ReconciliationTask
	require.NoError(t, db.Where("payment_id = ?", "pay_lost").First(&task).Error)
	assert.Equal(t, models.TaskStatusFailed, task.Status)
	assert.Equal(t, MaxTaskAttempts, task.Attempts)
	assert.NotEmpty(t, task.LastError)

	failed, err := ListReconciliationTasks(ctx, db, models.TaskStatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	open, err := ListReconciliationTasks(ctx, db, models.TaskStatusOpen)
	require.NoError(t, err)
	assert.Empty(t, open)

	summary, err = RetryOpenTasks(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, RetrySummary{}, summary, "failed tasks are not retried")
}
