package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/anjiri1684/vedic_numerology/cache"
	config "github.com/anjiri1684/vedic_numerology/configs"
	"github.com/anjiri1684/vedic_numerology/database/dbtest"
	"github.com/anjiri1684/vedic_numerology/payments"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestEnv wires a fresh database, Redis and the default storefront.
func newTestEnv(t *testing.T) *gorm.DB {
	t.Helper()

	prevSF := config.GetStorefront()
	config.SetStorefront(config.DefaultStorefront())
	t.Cleanup(func() { config.SetStorefront(prevSF) })

	mr := miniredis.RunT(t)
	c, err := cache.Initialize("redis://" + mr.Addr())
	require.NoError(t, err)
	prevCache := cache.Default
	cache.Default = c
	t.Cleanup(func() {
		cache.Default = prevCache
		_ = c.Close()
	})

	return dbtest.Open(t)
}

func ashaForm() IntakeForm {
	return IntakeForm{
		FullName:    "Asha Rao",
		DateOfBirth: "1990-05-15",
		Phone:       "9876543210",
		Email:       "asha@example.com",
	}
}

type fakeGateway struct {
	payments map[string]*payments.GatewayPayment
	orders   []string
	failWith error
}

func (g *fakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string, _ map[string]string) (*payments.GatewayOrder, error) {
	if g.failWith != nil {
		return nil, g.failWith
	}
	id := fmt.Sprintf("order_%d", len(g.orders)+1)
	g.orders = append(g.orders, id)
	return &payments.GatewayOrder{ID: id, Amount: amountMinor, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*payments.GatewayPayment, error) {
	if g.failWith != nil {
		return nil, g.failWith
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	return p, nil
}
