package handlers

import (
	"context"
	"errors"
	"time"

	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/database"
	"github.com/anjiri1684/vedic_numerology/middleware"
	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/anjiri1684/vedic_numerology/payments"
	"github.com/anjiri1684/vedic_numerology/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentCallbackRequest struct {
	PaymentID string `json:"payment_id" validate:"required,notblank"`
	OrderID   string `json:"order_id"`
	Signature string `json:"signature"`
}

// checkoutFor opens a gateway order for the report when a gateway is
// configured. Without one the widget is opened with amount only.
func checkoutFor(ctx context.Context, report *models.NumerologyReport) payments.CheckoutOptions {
	sf := config.GetStorefront()
	in := payments.CheckoutInput{
		PublicKey: config.Config("RAZORPAY_KEY_ID"),
		Amount:    report.Amount,
		Currency:  report.Currency,
		ReportID:  report.ID.String(),
		Prefill: payments.Prefill{
			Name:    report.FullName,
			Email:   report.Email,
			Contact: report.Phone,
		},
	}

	if payments.Provider != nil {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		order, err := payments.Provider.CreateOrder(ctx, payments.ToMinorUnits(report.Amount), report.Currency,
			payments.NewReceipt(time.Now()), map[string]string{"report_id": report.ID.String()})
		if err != nil {
			zap.L().Warn("could not open gateway order, continuing without one", zap.Stringer("report_id", report.ID), zap.Error(err))
		} else {
			in.OrderReference = order.ID
			if err := services.AttachGatewayOrder(ctx, database.DB, report.ID, order.ID); err != nil {
				zap.L().Warn("failed to store gateway order id", zap.Error(err))
			}
		}
	}
	return payments.BuildCheckoutOptions(sf, in)
}

func reportCreatedResponse(c *fiber.Ctx, report *models.NumerologyReport) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"report_id":      report.ID,
		"amount":         report.Amount,
		"currency":       report.Currency,
		"payment_status": report.PaymentStatus,
		"checkout":       checkoutFor(c.UserContext(), report),
	})
}

func validationFailed(c *fiber.Ctx, verr *services.ValidationError) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": verr.Message, "field": verr.Field})
}

func CreateReport(c *fiber.Ctx) error {
	var form services.IntakeForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	report, err := services.CreatePendingReport(c.UserContext(), database.DB, form, middleware.UserID(c))
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return validationFailed(c, verr)
		}
		zap.L().Error("🔥 Failed to create report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create report. Please try again."})
	}
	return reportCreatedResponse(c, report)
}

// ConfirmPayment is called by the browser from the checkout success handler.
func ConfirmPayment(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("reportId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	var req PaymentCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment_id is required"})
	}

	report, err := services.GetReport(c.UserContext(), database.DB, reportID)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	in, err := services.VerifyConfirmation(report, services.PaymentConfirmation{
		ReportID:       reportID,
		PaymentID:      req.PaymentID,
		GatewayOrderID: req.OrderID,
		Signature:      req.Signature,
		UserID:         middleware.UserID(c),
	}, config.Config("RAZORPAY_KEY_SECRET"), config.ConfigBool("RAZORPAY_VERIFY_SIGNATURE", true))
	if err != nil {
		zap.L().Warn("rejected payment confirmation", zap.String("payment_id", req.PaymentID), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment verification failed"})
	}

	// without a stored gateway order only the gateway can vouch for the amount
	if report.GatewayOrderID == nil && !report.IsPaid() && payments.Provider != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 10*time.Second)
		payment, err := payments.Provider.FetchPayment(ctx, in.PaymentID)
		cancel()
		if err != nil {
			zap.L().Warn("could not fetch payment to confirm it", zap.String("payment_id", in.PaymentID), zap.Error(err))
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Could not verify the payment yet. It will be confirmed shortly."})
		}
		in.AmountMinor = payment.Amount
		in.Currency = payment.Currency
		if in.GatewayOrderID == "" {
			in.GatewayOrderID = payment.OrderID
		}
	}

	result, err := services.ReconcilePayment(c.UserContext(), database.DB, in)
	switch {
	case errors.Is(err, services.ErrReportNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
	case errors.Is(err, services.ErrPaymentMismatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Payment verification failed"})
	case errors.Is(err, services.ErrReportAlreadyPaid):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "This report has already been paid for. Our team will contact you about the extra payment."})
	case errors.Is(err, services.ErrPaymentInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Payment is already being processed"})
	case err != nil:
		zap.L().Error("🔥 Payment reconciliation failed", zap.String("payment_id", req.PaymentID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record payment"})
	}

	resp := fiber.Map{
		"message":    "Payment successful",
		"report_id":  result.Report.ID,
		"payment_id": req.PaymentID,
		"amount":     result.Report.Amount,
		"duplicate":  result.Duplicate,
	}
	if result.Order != nil {
		resp["order_number"] = result.Order.OrderNumber
	}
	return c.JSON(resp)
}

// GetPaymentConfirmation backs the thank-you page.
func GetPaymentConfirmation(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("reportId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	report, err := services.GetReport(c.UserContext(), database.DB, reportID)
	if err != nil || !report.IsPaid() || report.PaymentID == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No completed payment for this report"})
	}

	return c.JSON(fiber.Map{
		"report_id":  report.ID,
		"full_name":  report.FullName,
		"email":      report.Email,
		"payment_id": *report.PaymentID,
		"amount":     report.Amount,
		"currency":   report.Currency,
		"paid_at":    report.PaidAt,
		"message":    "Your personalized numerology report will be sent to your email within 48 hours.",
	})
}

func GetMyReports(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var reports []models.NumerologyReport
	if err := database.DB.Where("user_id = ?", *userID).Order("created_at desc").Find(&reports).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(reports)
}

func GetMyPayments(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	history, err := services.ListPaymentHistory(c.UserContext(), database.DB, userID.String())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(history)
}

func DownloadMyReport(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	reportID, err := uuid.Parse(c.Params("reportId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid report ID"})
	}

	var report models.NumerologyReport
	if err := database.DB.Where("id = ? AND user_id = ?", reportID, *userID).First(&report).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Report not found"})
	}
	if !report.IsPaid() {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Report has not been paid for"})
	}
	if report.ReportURL == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Your report is still being prepared"})
	}
	return c.JSON(fiber.Map{"url": *report.ReportURL, "generated_at": report.GeneratedAt})
}
