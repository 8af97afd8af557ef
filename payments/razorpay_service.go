package payments

import (
	"context"
	"fmt"
	"math"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
)

// GatewayOrder is the gateway's order object. Raw keeps the full response so
// the relay can hand it to the browser unchanged.
type GatewayOrder struct {
	ID       string                 `json:"id"`
	Amount   int64                  `json:"amount"`
	Currency string                 `json:"currency"`
	Receipt  string                 `json:"receipt"`
	Status   string                 `json:"status"`
	Raw      map[string]interface{} `json:"-"`
}

type GatewayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Email    string `json:"email"`
	Contact  string `json:"contact"`
}

// Captured reports whether the money has moved at the gateway.
func (p *GatewayPayment) Captured() bool {
	return p.Status == "captured"
}

type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*GatewayOrder, error)
	FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
}

// Provider is the gateway used by handlers and jobs. Set by cmd/api.
var Provider Gateway

type Razorpay struct {
	client *razorpay.Client
	keyID  string
}

func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{
		client: razorpay.NewClient(keyID, keySecret),
		keyID:  keyID,
	}
}

func (r *Razorpay) KeyID() string { return r.keyID }

// withContext runs an SDK request, which takes no context, and gives up when
// ctx ends. An abandoned request still finishes under the SDK's own HTTP
// timeout; its result is discarded.
func withContext(ctx context.Context, call func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := call()
		done <- result{body, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.body, r.err
	}
}

func (r *Razorpay) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	body, err := withContext(ctx, func() (map[string]interface{}, error) {
		return r.client.Order.Create(data, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay: create order: %w", err)
	}
	return orderFromMap(body), nil
}

func (r *Razorpay) FetchPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	body, err := withContext(ctx, func() (map[string]interface{}, error) {
		return r.client.Payment.Fetch(paymentID, nil, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("razorpay: fetch payment %s: %w", paymentID, err)
	}
	return paymentFromMap(body), nil
}

func orderFromMap(m map[string]interface{}) *GatewayOrder {
	return &GatewayOrder{
		ID:       stringField(m, "id"),
		Amount:   int64Field(m, "amount"),
		Currency: stringField(m, "currency"),
		Receipt:  stringField(m, "receipt"),
		Status:   stringField(m, "status"),
		Raw:      m,
	}
}

func paymentFromMap(m map[string]interface{}) *GatewayPayment {
	return &GatewayPayment{
		ID:       stringField(m, "id"),
		OrderID:  stringField(m, "order_id"),
		Amount:   int64Field(m, "amount"),
		Currency: stringField(m, "currency"),
		Status:   stringField(m, "status"),
		Email:    stringField(m, "email"),
		Contact:  stringField(m, "contact"),
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func int64Field(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// ToMinorUnits converts a major-unit amount (rupees) to paise.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

func NewReceipt(now time.Time) string {
	return fmt.Sprintf("receipt_order_%d", now.UnixMilli())
}
