package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/anjiri1684/vedic_numerology/cache"
	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/database/dbtest"
	"github.com/anjiri1684/vedic_numerology/payments"
	"github.com/anjiri1684/vedic_numerology/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "handler-test-secret"

type fakeGateway struct {
	calls    []int64
	receipts []string
	failWith error
	// captured payments by id; unknown ids come back captured with no details
	captured map[string]*payments.GatewayPayment
}

func (g *fakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*payments.GatewayOrder, error) {
	if g.failWith != nil {
		return nil, g.failWith
	}
	g.calls = append(g.calls, amountMinor)
	g.receipts = append(g.receipts, receipt)
	id := fmt.Sprintf("order_test%d", len(g.calls))
	raw := map[string]interface{}{
		"id":       id,
		"entity":   "order",
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
		"status":   "created",
	}
	if len(notes) > 0 {
		raw["notes"] = notes
	}
	return &payments.GatewayOrder{ID: id, Amount: amountMinor, Currency: currency, Receipt: receipt, Status: "created", Raw: raw}, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*payments.GatewayPayment, error) {
	if g.failWith != nil {
		return nil, g.failWith
	}
	if p, ok := g.captured[paymentID]; ok {
		return p, nil
	}
	return &payments.GatewayPayment{ID: paymentID, Status: "captured"}, nil
}

type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	gateway *fakeGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_abcdefgh1234")
	t.Setenv("RAZORPAY_KEY_SECRET", "key-secret")
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "webhook-secret")
	t.Setenv("RAZORPAY_VERIFY_SIGNATURE", "false")

	prevSF := config.GetStorefront()
	config.SetStorefront(config.DefaultStorefront())
	t.Cleanup(func() { config.SetStorefront(prevSF) })

	mr := miniredis.RunT(t)
	rc, err := cache.Initialize("redis://" + mr.Addr())
	require.NoError(t, err)
	prevCache := cache.Default
	cache.Default = rc
	t.Cleanup(func() {
		cache.Default = prevCache
		_ = rc.Close()
	})

	gw := &fakeGateway{}
	prevProvider := payments.Provider
	payments.Provider = gw
	t.Cleanup(func() { payments.Provider = prevProvider })

	db := dbtest.Use(t)

	app := fiber.New(fiber.Config{CaseSensitive: true, StrictRouting: true})
	routes.Setup(app)

	return &testEnv{app: app, db: db, gateway: gw}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case []byte:
			reader = bytes.NewReader(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}, token string) (int, map[string]interface{}) {
	t.Helper()
	status, data := e.do(t, method, path, body, token)
	out := map[string]interface{}{}
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return status, out
}

func ashaReport() map[string]string {
	return map[string]string{
		"full_name":     "Asha Rao",
		"date_of_birth": "1990-05-15",
		"phone":         "9876543210",
		"email":         "asha@example.com",
	}
}
