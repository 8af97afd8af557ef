package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	rzputils "github.com/razorpay/razorpay-go/utils"
)

var ErrInvalidSignature = errors.New("invalid payment signature")

// VerifyPaymentSignature checks the razorpay_signature the checkout widget
// returns for an order and payment.
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) error {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return ErrInvalidSignature
	}
	attrs := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	if !rzputils.VerifyPaymentSignature(attrs, signature, secret) {
		return ErrInvalidSignature
	}
	return nil
}

func VerifyWebhookSignature(body []byte, signature, secret string) error {
	if len(body) == 0 || signature == "" || secret == "" {
		return ErrInvalidSignature
	}
	if !rzputils.VerifyWebhookSignature(string(body), signature, secret) {
		return ErrInvalidSignature
	}
	return nil
}

// sign produces signatures the way the gateway does. Only fixtures use it.
func sign(message []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// PaymentSignature is what the checkout widget returns as razorpay_signature.
func PaymentSignature(orderID, paymentID, secret string) string {
	return sign([]byte(orderID+"|"+paymentID), secret)
}

// WebhookSignature is what the gateway sends as X-Razorpay-Signature.
func WebhookSignature(body []byte, secret string) string {
	return sign(body, secret)
}

type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity WebhookPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type WebhookPayment struct {
	ID       string          `json:"id"`
	OrderID  string          `json:"order_id"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
	Email    string          `json:"email"`
	Contact  string          `json:"contact"`
	Notes    json.RawMessage `json:"notes"`
}

// Note returns a string note. The gateway sends notes as [] when empty.
func (p WebhookPayment) Note(key string) string {
	var notes map[string]interface{}
	if err := json.Unmarshal(p.Notes, &notes); err != nil {
		return ""
	}
	if v, ok := notes[key].(string); ok {
		return v
	}
	return ""
}
