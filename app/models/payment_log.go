package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

var PaymentStatuses = []string{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed}

// PaymentLog records a payment the student made (tuition, visa fee, insurance)
// together with an optional link to the proof document.
type PaymentLog struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      string    `gorm:"type:char(36);not null;index:idx_payment_logs_user_paid,priority:1" json:"user_id"`
	Payee       string    `gorm:"type:varchar(120);not null" json:"payee"`
	AmountCents int64     `gorm:"not null" json:"amount_cents"`
	Currency    string    `gorm:"type:char(3);not null;default:'EUR'" json:"currency"`
	PaidAt      time.Time `gorm:"not null;index:idx_payment_logs_user_paid,priority:2" json:"paid_at"`
	ProofURL    *string   `gorm:"type:varchar(1024);default:null" json:"proof_url"`
	Status      string    `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *PaymentLog) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
