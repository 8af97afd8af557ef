package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anjiri1684/vedic_numerology/models"
	"github.com/anjiri1684/vedic_numerology/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderRelay(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.doJSON(t, http.MethodPost, "/api/payment/create-order", map[string]interface{}{"amount": 199, "currency": "INR"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "order_test1", body["id"])
	assert.Equal(t, float64(19900), body["amount"])
	assert.Equal(t, "INR", body["currency"])
	assert.Equal(t, []int64{19900}, env.gateway.calls)
	assert.Regexp(t, `^receipt_order_\d+$`, env.gateway.receipts[0])

	status, _ = env.doJSON(t, http.MethodPost, "/api/v1/payments/create-order", map[string]interface{}{"amount": 2.5}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(250), env.gateway.calls[1])
}

func TestCreateOrderRelay_Failures(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.failWith = errors.New("gateway down")

	status, body := env.doJSON(t, http.MethodPost, "/api/payment/create-order", map[string]interface{}{"amount": 199, "currency": "INR"}, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, map[string]interface{}{"error": "Failed to create order"}, body)

	payments.Provider = nil
	status, body = env.doJSON(t, http.MethodPost, "/api/payment/create-order", map[string]interface{}{"amount": 199}, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to create order", body["error"])

	status, _ = env.doJSON(t, http.MethodPost, "/api/payment/create-order", []byte("{not json"), "")
	assert.Equal(t, http.StatusInternalServerError, status)
}

func webhookBody(t *testing.T, event, paymentID, orderID, reportID string, amount int64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"event": event,
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":       paymentID,
					"order_id": orderID,
					"amount":   amount,
					"currency": "INR",
					"status":   "captured",
					"notes":    map[string]string{"report_id": reportID},
				},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func (e *testEnv) webhook(t *testing.T, body []byte, signature string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Razorpay-Signature", signature)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestPaymentWebhook(t *testing.T) {
	env := newTestEnv(t)

	status, created := env.doJSON(t, http.MethodPost, "/api/v1/reports", ashaReport(), "")
	require.Equal(t, http.StatusCreated, status)
	reportID := created["report_id"].(string)
	orderID := created["checkout"].(map[string]interface{})["order_id"].(string)

	body := webhookBody(t, "payment.captured", "pay_wh1", orderID, reportID, 19900)

	status, resp := env.webhook(t, body, "bad-signature")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid signature", resp["error"])

	sig := payments.WebhookSignature(body, "webhook-secret")
	status, resp = env.webhook(t, body, sig)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Payment recorded", resp["message"])

	var report models.NumerologyReport
	require.NoError(t, env.db.First(&report, "id = ?", reportID).Error)
	assert.True(t, report.IsPaid())
	require.NotNil(t, report.GatewayOrderID)
	assert.Equal(t, "order_test1", *report.GatewayOrderID)

	// gateway retries are acknowledged without a second order
	status, resp = env.webhook(t, body, sig)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Webhook already processed", resp["message"])

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPaymentWebhook_IgnoresOtherEvents(t *testing.T) {
	env := newTestEnv(t)

	body := webhookBody(t, "payment.failed", "pay_x", "order_x", "not-a-uuid", 19900)
	status, resp := env.webhook(t, body, payments.WebhookSignature(body, "webhook-secret"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Event ignored", resp["message"])

	body = webhookBody(t, "payment.captured", "pay_y", "order_y", "not-a-uuid", 19900)
	status, resp = env.webhook(t, body, payments.WebhookSignature(body, "webhook-secret"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Acknowledged", resp["message"])

	// unknown report
	body = webhookBody(t, "payment.captured", "pay_z", "order_z", "6f1c1a5e-2d59-4d7a-9a53-0d3b2b5b9e11", 19900)
	status, _ = env.webhook(t, body, payments.WebhookSignature(body, "webhook-secret"))
	assert.Equal(t, http.StatusOK, status)
}

func TestPaymentWebhook_MismatchedPaymentIsNotBooked(t *testing.T) {
	env := newTestEnv(t)

	_, created := env.doJSON(t, http.MethodPost, "/api/v1/reports", ashaReport(), "")
	reportID := created["report_id"].(string)

	tests := []struct {
		name      string
		paymentID string
		orderID   string
		amount    int64
	}{
		{"payment for another order", "pay_other_order", "order_cheap", 100},
		{"short payment on the report's order", "pay_short", "order_test1", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := webhookBody(t, "payment.captured", tt.paymentID, tt.orderID, reportID, tt.amount)
			status, resp := env.webhook(t, body, payments.WebhookSignature(body, "webhook-secret"))
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, "Acknowledged", resp["message"])

			var task models.ReconciliationTask
			require.NoError(t, env.db.Where("payment_id = ?", tt.paymentID).First(&task).Error)
			assert.Equal(t, models.TaskKindOrphanPayment, task.Kind)
		})
	}

	var report models.NumerologyReport
	require.NoError(t, env.db.First(&report, "id = ?", reportID).Error)
	assert.False(t, report.IsPaid())
	require.NotNil(t, report.GatewayOrderID)
	assert.Equal(t, "order_test1", *report.GatewayOrderID)

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}
