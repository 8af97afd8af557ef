package payments

import (
	config "github.com/anjiri1684/vedic_numerology/configs"
)

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type Theme struct {
	Color string `json:"color"`
}

// CheckoutOptions is handed to the hosted checkout widget in the browser.
type CheckoutOptions struct {
	Key         string            `json:"key"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	OrderID     string            `json:"order_id,omitempty"`
	Prefill     Prefill           `json:"prefill"`
	Theme       Theme             `json:"theme"`
	Notes       map[string]string `json:"notes,omitempty"`
}

type CheckoutInput struct {
	PublicKey      string
	Amount         float64
	Currency       string
	OrderReference string
	ReportID       string
	Prefill        Prefill
}

func BuildCheckoutOptions(sf *config.Storefront, in CheckoutInput) CheckoutOptions {
	currency := in.Currency
	if currency == "" {
		currency = sf.Currency
	}
	opts := CheckoutOptions{
		Key:         in.PublicKey,
		Amount:      ToMinorUnits(in.Amount),
		Currency:    currency,
		Name:        sf.DisplayName,
		Description: sf.Description,
		OrderID:     in.OrderReference,
		Prefill:     in.Prefill,
		Theme:       Theme{Color: sf.ThemeColor},
	}
	if in.ReportID != "" {
		opts.Notes = map[string]string{"report_id": in.ReportID}
	}
	return opts
}
