package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anjiri1684/vedic_numerology/cache"
	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/anjiri1684/vedic_numerology/notifications"
	"github.com/anjiri1684/vedic_numerology/payments"
	"github.com/anjiri1684/vedic_numerology/utils"
	"github.com/anjiri1684/vedic_numerology/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrReportNotFound    = errors.New("report not found")
	ErrReportAlreadyPaid = errors.New("report already paid with a different payment")
	ErrPaymentInProgress = errors.New("payment is already being processed")
	ErrMissingPaymentID  = errors.New("payment id is required")
	ErrPaymentMismatch   = errors.New("payment does not match the report")
)

const paymentLockTTL = time.Minute

// CreatePendingReport stores a validated intake form as a pending report
// priced from the storefront catalogue.
func CreatePendingReport(ctx context.Context, db *gorm.DB, form IntakeForm, userID *uuid.UUID) (*models.NumerologyReport, error) {
	sf := config.GetStorefront()
	if err := ValidateIntakeForm(form, sf.CollectGender); err != nil {
		return nil, err
	}

	report := models.NumerologyReport{
		UserID:        userID,
		FullName:      strings.TrimSpace(form.FullName),
		Email:         strings.TrimSpace(form.Email),
		Phone:         strings.TrimSpace(form.Phone),
		DateOfBirth:   form.DateOfBirth,
		PaymentStatus: models.PaymentStatusPending,
		Amount:        sf.ReportPrice,
		Currency:      sf.Currency,
	}
	if form.Gender != "" {
		gender := form.Gender
		report.Gender = &gender
	}

	if err := db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	websocket.Publish(websocket.EventReportCreated, reportSummary(&report))
	return &report, nil
}

func reportSummary(r *models.NumerologyReport) map[string]interface{} {
	return map[string]interface{}{
		"report_id":      r.ID,
		"full_name":      r.FullName,
		"email":          r.Email,
		"amount":         r.Amount,
		"payment_status": r.PaymentStatus,
	}
}

func GetReport(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.NumerologyReport, error) {
	var report models.NumerologyReport
	if err := db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

// AttachGatewayOrder remembers the gateway order opened for a pending report.
func AttachGatewayOrder(ctx context.Context, db *gorm.DB, reportID uuid.UUID, gatewayOrderID string) error {
	return db.WithContext(ctx).Model(&models.NumerologyReport{}).
		Where("id = ? AND payment_status = ?", reportID, models.PaymentStatusPending).
		Update("gateway_order_id", gatewayOrderID).Error
}

type OrderInput struct {
	UserID        *uuid.UUID
	ReportID      uuid.UUID
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Amount        float64
	Currency      string
	PaymentID     string
}

// CreateOrderForPayment writes the order for a captured payment. A second
// call with the same payment id returns the existing order.
func CreateOrderForPayment(ctx context.Context, db *gorm.DB, in OrderInput) (*models.Order, error) {
	db = db.WithContext(ctx)

	var existing models.Order
	err := db.Where("payment_id = ?", in.PaymentID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up order for payment %s: %w", in.PaymentID, err)
	}

	orderNumber, err := utils.GenerateUniqueOrderNumber(db)
	if err != nil {
		return nil, err
	}

	paymentID := in.PaymentID
	order := models.Order{
		OrderNumber:   orderNumber,
		ReportID:      in.ReportID,
		UserID:        in.UserID,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		CustomerPhone: in.CustomerPhone,
		Amount:        in.Amount,
		Currency:      in.Currency,
		PaymentStatus: models.PaymentStatusCompleted,
		PaymentID:     &paymentID,
	}
	if err := db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("create order for payment %s: %w", in.PaymentID, err)
	}
	return &order, nil
}

type HistoryInput struct {
	UserID    uuid.UUID
	ReportID  uuid.UUID
	PaymentID string
	Amount    float64
	Currency  string
}

// RecordPaymentHistory appends to a signed-in buyer's history, once per payment.
func RecordPaymentHistory(ctx context.Context, db *gorm.DB, in HistoryInput) (*models.PaymentHistory, error) {
	db = db.WithContext(ctx)

	var existing models.PaymentHistory
	err := db.Where("payment_id = ?", in.PaymentID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up history for payment %s: %w", in.PaymentID, err)
	}

	history := models.PaymentHistory{
		UserID:    in.UserID,
		ReportID:  in.ReportID,
		PaymentID: in.PaymentID,
		Amount:    in.Amount,
		Currency:  in.Currency,
		Status:    models.PaymentStatusCompleted,
		Gateway:   models.GatewayRazorpay,
	}
	if err := db.Create(&history).Error; err != nil {
		return nil, fmt.Errorf("insert payment history for %s: %w", in.PaymentID, err)
	}
	return &history, nil
}

// markReportCompleted is the only status transition the service performs.
// It returns false when the report was not pending. A gateway order id
// already stored on the report is kept.
func markReportCompleted(ctx context.Context, db *gorm.DB, reportID uuid.UUID, paymentID, gatewayOrderID string) (bool, error) {
	updates := map[string]interface{}{
		"payment_status": models.PaymentStatusCompleted,
		"payment_id":     paymentID,
		"paid_at":        time.Now(),
	}
	if gatewayOrderID != "" {
		updates["gateway_order_id"] = gorm.Expr("COALESCE(gateway_order_id, ?)", gatewayOrderID)
	}
	res := db.WithContext(ctx).Model(&models.NumerologyReport{}).
		Where("id = ? AND payment_status = ?", reportID, models.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("complete report %s: %w", reportID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// QueueReconciliationTask records bookkeeping that must be redone for a
// captured payment. One open task per (kind, payment id).
func QueueReconciliationTask(ctx context.Context, db *gorm.DB, kind, paymentID string, reportID uuid.UUID, userID *uuid.UUID, cause error) error {
	task := models.ReconciliationTask{
		Kind:      kind,
		PaymentID: paymentID,
		ReportID:  reportID,
		UserID:    userID,
		Status:    models.TaskStatusOpen,
	}
	if cause != nil {
		task.LastError = cause.Error()
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "kind"}, {Name: "payment_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":      models.TaskStatusOpen,
			"attempts":    0,
			"last_error":  task.LastError,
			"resolved_at": nil,
			"updated_at":  time.Now(),
		}),
	}).Create(&task).Error
}

// PaymentConfirmation is what the checkout widget or the gateway webhook
// hands back on success. AmountMinor and Currency are only known when the
// gateway reported them; zero values skip those checks.
type PaymentConfirmation struct {
	ReportID       uuid.UUID
	PaymentID      string
	GatewayOrderID string
	Signature      string
	UserID         *uuid.UUID
	AmountMinor    int64
	Currency       string
}

// VerifyConfirmation checks the widget's signature against the gateway order
// opened for the report, and returns the confirmation bound to that order.
// A confirmation naming another order is rejected. With required=false a
// confirmation without a signature is accepted, but a wrong one never is.
func VerifyConfirmation(report *models.NumerologyReport, in PaymentConfirmation, secret string, required bool) (PaymentConfirmation, error) {
	if in.PaymentID == "" {
		return in, ErrMissingPaymentID
	}
	if report.GatewayOrderID != nil {
		if in.GatewayOrderID != "" && in.GatewayOrderID != *report.GatewayOrderID {
			return in, fmt.Errorf("%w: order %s, expected %s", ErrPaymentMismatch, in.GatewayOrderID, *report.GatewayOrderID)
		}
		in.GatewayOrderID = *report.GatewayOrderID
	}
	if in.Signature == "" && !required {
		return in, nil
	}
	return in, payments.VerifyPaymentSignature(in.GatewayOrderID, in.PaymentID, in.Signature, secret)
}

// checkPaymentMatchesReport rejects a payment made against another gateway
// order or for another amount than the report's price.
func checkPaymentMatchesReport(report *models.NumerologyReport, in PaymentConfirmation) error {
	if report.GatewayOrderID != nil && in.GatewayOrderID != "" && in.GatewayOrderID != *report.GatewayOrderID {
		return fmt.Errorf("%w: order %s, expected %s", ErrPaymentMismatch, in.GatewayOrderID, *report.GatewayOrderID)
	}
	if want := payments.ToMinorUnits(report.Amount); in.AmountMinor != 0 && in.AmountMinor != want {
		return fmt.Errorf("%w: amount %d, expected %d", ErrPaymentMismatch, in.AmountMinor, want)
	}
	if in.Currency != "" && !strings.EqualFold(in.Currency, report.Currency) {
		return fmt.Errorf("%w: currency %s, expected %s", ErrPaymentMismatch, in.Currency, report.Currency)
	}
	return nil
}

type ReconcileResult struct {
	Report    *models.NumerologyReport `json:"report"`
	Order     *models.Order            `json:"order,omitempty"`
	History   *models.PaymentHistory   `json:"payment_history,omitempty"`
	Duplicate bool                     `json:"duplicate"`
	Queued    []string                 `json:"queued,omitempty"`
}

// ReconcilePayment books a captured payment against its report. The three
// writes (report status, order, history) are independent: a failing write
// is queued as a reconciliation task and never undoes the others, because
// the money has already moved at the gateway.
func ReconcilePayment(ctx context.Context, db *gorm.DB, in PaymentConfirmation) (*ReconcileResult, error) {
	if in.PaymentID == "" {
		return nil, ErrMissingPaymentID
	}
	log := zap.L().With(zap.String("payment_id", in.PaymentID), zap.Stringer("report_id", in.ReportID))

	report, err := GetReport(ctx, db, in.ReportID)
	if err != nil {
		return nil, err
	}

	if report.IsPaid() {
		if report.PaymentID != nil && *report.PaymentID == in.PaymentID {
			return duplicateResult(ctx, db, report), nil
		}
		log.Error("🔥 CRITICAL: second payment captured for an already paid report")
		if qerr := QueueReconciliationTask(ctx, db, models.TaskKindOrphanPayment, in.PaymentID, report.ID, in.UserID, ErrReportAlreadyPaid); qerr != nil {
			log.Error("failed to queue orphan payment", zap.Error(qerr))
		}
		return nil, ErrReportAlreadyPaid
	}

	if err := checkPaymentMatchesReport(report, in); err != nil {
		log.Error("🔥 captured payment does not match its report", zap.Error(err))
		if qerr := QueueReconciliationTask(ctx, db, models.TaskKindOrphanPayment, in.PaymentID, report.ID, in.UserID, err); qerr != nil {
			log.Error("failed to queue orphan payment", zap.Error(qerr))
		}
		return nil, err
	}

	if cache.Default != nil {
		acquired, lerr := cache.Default.AcquirePaymentLock(ctx, in.PaymentID, paymentLockTTL)
		if lerr != nil {
			log.Warn("payment lock unavailable, continuing without it", zap.Error(lerr))
		} else if !acquired {
			return nil, ErrPaymentInProgress
		} else {
			defer func() {
				if rerr := cache.Default.ReleasePaymentLock(context.Background(), in.PaymentID); rerr != nil {
					log.Warn("failed to release payment lock", zap.Error(rerr))
				}
			}()
		}
	}

	result := &ReconcileResult{Report: report}
	queue := func(kind string, cause error) {
		result.Queued = append(result.Queued, kind)
		if qerr := QueueReconciliationTask(ctx, db, kind, in.PaymentID, report.ID, in.UserID, cause); qerr != nil {
			log.Error("🔥 failed to queue reconciliation task", zap.String("kind", kind), zap.NamedError("cause", cause), zap.Error(qerr))
		}
	}

	// 1. report status
	updated, err := markReportCompleted(ctx, db, report.ID, in.PaymentID, in.GatewayOrderID)
	switch {
	case err != nil:
		log.Error("🔥 report status update failed after payment", zap.Error(err))
		queue(models.TaskKindReportStatus, err)
	case !updated:
		// lost a race with another confirmation for this report
		fresh, ferr := GetReport(ctx, db, report.ID)
		if ferr == nil && fresh.PaymentID != nil && *fresh.PaymentID == in.PaymentID {
			return duplicateResult(ctx, db, fresh), nil
		}
		return nil, ErrReportAlreadyPaid
	default:
		now := time.Now()
		report.PaymentStatus = models.PaymentStatusCompleted
		paymentID := in.PaymentID
		report.PaymentID = &paymentID
		report.PaidAt = &now
		if report.GatewayOrderID == nil && in.GatewayOrderID != "" {
			gatewayOrderID := in.GatewayOrderID
			report.GatewayOrderID = &gatewayOrderID
		}
	}

	// 2. order
	order, err := CreateOrderForPayment(ctx, db, OrderInput{
		UserID:        in.UserID,
		ReportID:      report.ID,
		CustomerName:  report.FullName,
		CustomerEmail: report.Email,
		CustomerPhone: report.Phone,
		Amount:        report.Amount,
		Currency:      report.Currency,
		PaymentID:     in.PaymentID,
	})
	if err != nil {
		log.Error("🔥 order creation failed after payment", zap.Error(err))
		queue(models.TaskKindOrder, err)
	} else {
		result.Order = order
	}

	// 3. history, signed-in buyers only
	if in.UserID != nil {
		history, err := RecordPaymentHistory(ctx, db, HistoryInput{
			UserID:    *in.UserID,
			ReportID:  report.ID,
			PaymentID: in.PaymentID,
			Amount:    report.Amount,
			Currency:  report.Currency,
		})
		if err != nil {
			log.Error("🔥 payment history insert failed after payment", zap.Error(err))
			queue(models.TaskKindPaymentHistory, err)
		} else {
			result.History = history
		}
	}

	orderNumber := ""
	if result.Order != nil {
		orderNumber = result.Order.OrderNumber
	}
	go notifications.SendEmail(report.FullName, report.Email, "Payment Successful!", notifications.PaymentConfirmationHTML(notifications.PaymentConfirmation{
		Name:        report.FullName,
		Amount:      report.Amount,
		Currency:    report.Currency,
		PaymentID:   in.PaymentID,
		OrderNumber: orderNumber,
	}))
	websocket.Publish(websocket.EventPaymentCompleted, map[string]interface{}{
		"report_id":    report.ID,
		"payment_id":   in.PaymentID,
		"order_number": orderNumber,
		"amount":       report.Amount,
		"guest":        in.UserID == nil,
	})

	log.Info("✅ payment reconciled", zap.Strings("queued", result.Queued))
	return result, nil
}

func duplicateResult(ctx context.Context, db *gorm.DB, report *models.NumerologyReport) *ReconcileResult {
	result := &ReconcileResult{Report: report, Duplicate: true}
	var order models.Order
	if err := db.WithContext(ctx).Where("payment_id = ?", *report.PaymentID).First(&order).Error; err == nil {
		result.Order = &order
	}
	var history models.PaymentHistory
	if err := db.WithContext(ctx).Where("payment_id = ?", *report.PaymentID).First(&history).Error; err == nil {
		result.History = &history
	}
	zap.L().Info("duplicate payment confirmation ignored", zap.String("payment_id", *report.PaymentID))
	return result
}
