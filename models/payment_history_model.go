package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const GatewayRazorpay = "razorpay"

// PaymentHistory exists only for signed-in buyers.
type PaymentHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ReportID  uuid.UUID `gorm:"type:uuid;not null" json:"report_id"`
	PaymentID string    `gorm:"size:255;not null;uniqueIndex" json:"payment_id"`
	Amount    float64   `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency  string    `gorm:"size:3;not null" json:"currency"`
	Status    string    `gorm:"size:20;not null" json:"status"`
	Gateway   string    `gorm:"size:50;not null" json:"gateway"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (PaymentHistory) TableName() string { return "payment_history" }

func (p *PaymentHistory) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
