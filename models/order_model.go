package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is the commercial record written after a payment is captured.
// PaymentID is unique so a replayed callback cannot create a second row.
type Order struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	OrderNumber   string     `gorm:"size:20;not null;uniqueIndex" json:"order_number"`
	ReportID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"report_id"`
	UserID        *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	CustomerName  string     `gorm:"size:255;not null" json:"customer_name"`
	CustomerEmail string     `gorm:"size:255;not null" json:"customer_email"`
	CustomerPhone string     `gorm:"size:32;not null" json:"customer_phone"`
	Amount        float64    `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency      string     `gorm:"size:3;not null" json:"currency"`
	PaymentStatus string     `gorm:"size:20;not null" json:"payment_status"`
	PaymentID     *string    `gorm:"size:255;uniqueIndex" json:"payment_id"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
