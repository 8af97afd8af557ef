package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskKindOrder          = "order"
	TaskKindPaymentHistory = "payment_history"
	TaskKindOrphanPayment  = "orphan_payment"
	TaskKindReportStatus   = "report_status"

	TaskStatusOpen     = "open"
	TaskStatusResolved = "resolved"
	// TaskStatusFailed marks a task that ran out of retries and needs a human.
	TaskStatusFailed = "failed"
)

// ReconciliationTask records bookkeeping that did not happen after a captured
// payment. The reconciliation job retries open tasks until they resolve or
// reach the attempt limit.
type ReconciliationTask struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Kind      string     `gorm:"size:30;not null;uniqueIndex:ux_task_kind_payment,priority:1" json:"kind"`
	PaymentID string     `gorm:"size:255;not null;uniqueIndex:ux_task_kind_payment,priority:2" json:"payment_id"`
	ReportID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"report_id"`
	UserID    *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"`
	Status    string     `gorm:"size:20;not null;default:'open';index" json:"status"`
	Attempts  int        `gorm:"default:0" json:"attempts"`
	LastError string     `gorm:"type:text" json:"last_error"`

	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (t *ReconciliationTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
