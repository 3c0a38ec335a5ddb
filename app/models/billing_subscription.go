package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

const (
	BillingStatusActive   = "active"
	BillingStatusTrialing = "trialing"
	BillingStatusPastDue  = "past_due"
	BillingStatusCanceled = "canceled"
	BillingStatusInactive = "inactive"
)

// BillingSubscription is the single subscription row of a user. It is only
// written by the billing reconciler; a missing row means free/inactive.
type BillingSubscription struct {
	ID                   string     `gorm:"type:char(36);primaryKey" json:"id"`
	UserID               string     `gorm:"type:char(36);not null;uniqueIndex:ux_billing_subscriptions_user" json:"user_id"`
	Plan                 string     `gorm:"type:varchar(16);not null;default:'free'" json:"plan"`
	Status               string     `gorm:"type:varchar(32);not null;default:'inactive';index" json:"status"`
	StripeCustomerID     *string    `gorm:"type:varchar(191);default:null;index" json:"stripe_customer_id"`
	StripeSubscriptionID *string    `gorm:"type:varchar(191);default:null;index" json:"stripe_subscription_id"`
	CurrentPeriodEnd     *time.Time `gorm:"default:null" json:"current_period_end"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *BillingSubscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
