package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/database"
	"github.com/anjiri1684/vedic_numerology/payments"
	"github.com/anjiri1684/vedic_numerology/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateOrderRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// CreateGatewayOrder relays an order creation to the gateway with the server
// side secret. Any failure is reported the same way.
func CreateGatewayOrder(c *fiber.Ctx) error {
	failed := func(err error) error {
		zap.L().Error("🔥 Razorpay order creation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create order"})
	}

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return failed(err)
	}
	if payments.Provider == nil {
		return failed(errors.New("payment gateway is not configured"))
	}
	if req.Currency == "" {
		req.Currency = config.GetStorefront().Currency
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 15*time.Second)
	defer cancel()

	order, err := payments.Provider.CreateOrder(ctx, payments.ToMinorUnits(req.Amount), req.Currency, payments.NewReceipt(time.Now()), nil)
	if err != nil {
		return failed(err)
	}
	if len(order.Raw) > 0 {
		return c.JSON(order.Raw)
	}
	return c.JSON(order)
}

// HandlePaymentWebhook books payment.captured events for reports the browser
// never confirmed, e.g. when the tab was closed after paying.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	body := c.Body()
	signature := c.Get("X-Razorpay-Signature")
	if err := payments.VerifyWebhookSignature(body, signature, config.Config("RAZORPAY_WEBHOOK_SECRET")); err != nil {
		zap.L().Warn("rejected webhook with bad signature")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	var event payments.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}

	entity := event.Payload.Payment.Entity
	zap.L().Info("Received payment webhook", zap.String("event", event.Event), zap.String("payment_id", entity.ID))

	if event.Event != "payment.captured" {
		return c.JSON(fiber.Map{"message": "Event ignored"})
	}

	reportID, err := uuid.Parse(entity.Note("report_id"))
	if err != nil {
		zap.L().Warn("captured payment without a report reference", zap.String("payment_id", entity.ID))
		return c.JSON(fiber.Map{"message": "Acknowledged"})
	}

	report, err := services.GetReport(c.UserContext(), database.DB, reportID)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			zap.L().Error("🔥 captured payment for unknown report", zap.String("payment_id", entity.ID), zap.Stringer("report_id", reportID))
			return c.JSON(fiber.Map{"message": "Acknowledged"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	result, err := services.ReconcilePayment(c.UserContext(), database.DB, services.PaymentConfirmation{
		ReportID:       report.ID,
		PaymentID:      entity.ID,
		GatewayOrderID: entity.OrderID,
		UserID:         report.UserID,
		AmountMinor:    entity.Amount,
		Currency:       entity.Currency,
	})
	switch {
	case errors.Is(err, services.ErrReportAlreadyPaid), errors.Is(err, services.ErrPaymentMismatch):
		// queued for manual review; retrying will not change the outcome
		return c.JSON(fiber.Map{"message": "Acknowledged"})
	case errors.Is(err, services.ErrPaymentInProgress):
		// the browser callback is booking it right now; let the gateway retry
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Payment is being processed"})
	case err != nil:
		zap.L().Error("🔥 Webhook reconciliation failed", zap.String("payment_id", entity.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record payment"})
	}

	if result.Duplicate {
		return c.JSON(fiber.Map{"message": "Webhook already processed"})
	}
	return c.JSON(fiber.Map{"message": "Payment recorded"})
}
