package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{199, 19900},
		{1, 100},
		{49.99, 4999},
		{0.1 + 0.2, 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToMinorUnits(tt.in))
	}
	assert.Equal(t, 199.0, FromMinorUnits(19900))
}

func TestNewReceipt(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "receipt_order_1700000000123", NewReceipt(now))
}

func TestBuildCheckoutOptions(t *testing.T) {
	sf := config.DefaultStorefront()
	opts := BuildCheckoutOptions(sf, CheckoutInput{
		PublicKey:      "rzp_test_key",
		Amount:         199,
		OrderReference: "order_ABC",
		ReportID:       "r-1",
		Prefill:        Prefill{Name: "Asha Rao", Email: "asha@example.com", Contact: "9876543210"},
	})

	assert.Equal(t, "rzp_test_key", opts.Key)
	assert.Equal(t, int64(19900), opts.Amount)
	assert.Equal(t, "INR", opts.Currency)
	assert.Equal(t, "Vedic Numerology", opts.Name)
	assert.Equal(t, "Personalized Numerology Report", opts.Description)
	assert.Equal(t, "order_ABC", opts.OrderID)
	assert.Equal(t, "#FBBF24", opts.Theme.Color)
	assert.Equal(t, "r-1", opts.Notes["report_id"])

	raw, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"prefill":{"name":"Asha Rao","email":"asha@example.com","contact":"9876543210"}`)
}

func TestPaymentSignature(t *testing.T) {
	sig := PaymentSignature("order_1", "pay_1", "secret")
	assert.NoError(t, VerifyPaymentSignature("order_1", "pay_1", sig, "secret"))
	assert.ErrorIs(t, VerifyPaymentSignature("order_1", "pay_2", sig, "secret"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyPaymentSignature("order_1", "pay_1", sig, "other"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyPaymentSignature("order_1", "pay_1", "", "secret"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyPaymentSignature("order_1", "pay_1", sig, ""), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyPaymentSignature("", "pay_1", sig, "secret"), ErrInvalidSignature)

	other := PaymentSignature("order_2", "pay_1", "secret")
	assert.ErrorIs(t, VerifyPaymentSignature("order_1", "pay_1", other, "secret"), ErrInvalidSignature,
		"a signature for another order does not verify")
}

func TestWebhookSignatureAndNotes(t *testing.T) {
	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_9","amount":19900,"currency":"INR","status":"captured","notes":{"report_id":"abc"}}}}}`)
	sig := WebhookSignature(body, "whsec")
	require.NoError(t, VerifyWebhookSignature(body, sig, "whsec"))
	assert.ErrorIs(t, VerifyWebhookSignature(append(body, ' '), sig, "whsec"), ErrInvalidSignature)

	var evt WebhookEvent
	require.NoError(t, json.Unmarshal(body, &evt))
	assert.Equal(t, "payment.captured", evt.Event)
	assert.Equal(t, "abc", evt.Payload.Payment.Entity.Note("report_id"))

	empty := WebhookPayment{Notes: json.RawMessage(`[]`)}
	assert.Equal(t, "", empty.Note("report_id"))
}

func TestOrderAndPaymentFromMap(t *testing.T) {
	order := orderFromMap(map[string]interface{}{
		"id": "order_1", "amount": float64(19900), "currency": "INR", "receipt": "receipt_order_1", "status": "created",
	})
	assert.Equal(t, "order_1", order.ID)
	assert.Equal(t, int64(19900), order.Amount)
	assert.Equal(t, "created", order.Status)
	assert.Equal(t, "INR", order.Raw["currency"])

	payment := paymentFromMap(map[string]interface{}{
		"id": "pay_1", "order_id": "order_1", "amount": float64(19900), "status": "captured",
	})
	assert.True(t, payment.Captured())
	assert.Equal(t, "order_1", payment.OrderID)
}

func TestWithContext(t *testing.T) {
	body, err := withContext(context.Background(), func() (map[string]interface{}, error) {
		return map[string]interface{}{"id": "order_1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "order_1", body["id"])

	_, err = withContext(context.Background(), func() (map[string]interface{}, error) {
		return nil, errors.New("bad request")
	})
	assert.EqualError(t, err, "bad request")

	release := make(chan struct{})
	defer close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = withContext(ctx, func() (map[string]interface{}, error) {
		<-release
		return nil, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	called := false
	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = withContext(cancelled, func() (map[string]interface{}, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
