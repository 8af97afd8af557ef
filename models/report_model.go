package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

// NumerologyReport is created pending at the end of intake and completed by a
// successful payment callback. UserID is nil for guest checkouts.
type NumerologyReport struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID         *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	FullName       string     `gorm:"size:255;not null" json:"full_name"`
	Email          string     `gorm:"size:255;not null;index" json:"email"`
	Phone          string     `gorm:"size:32;not null" json:"phone"`
	DateOfBirth    string     `gorm:"size:10;not null" json:"date_of_birth"`
	Gender         *string    `gorm:"size:20" json:"gender,omitempty"`
	PaymentStatus  string     `gorm:"size:20;not null;default:'pending';index" json:"payment_status"`
	PaymentID      *string    `gorm:"size:255;uniqueIndex" json:"payment_id,omitempty"`
	GatewayOrderID *string    `gorm:"size:255" json:"gateway_order_id,omitempty"`
	Amount         float64    `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency       string     `gorm:"size:3;not null" json:"currency"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`

	LifePathNumber    *int `json:"life_path_number,omitempty"`
	DestinyNumber     *int `json:"destiny_number,omitempty"`
	SoulUrgeNumber    *int `json:"soul_urge_number,omitempty"`
	PersonalityNumber *int `json:"personality_number,omitempty"`

	ReportURL   *string    `gorm:"size:512" json:"report_url,omitempty"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *NumerologyReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *NumerologyReport) IsPaid() bool {
	return r.PaymentStatus == PaymentStatusCompleted
}
