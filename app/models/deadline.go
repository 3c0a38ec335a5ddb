package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DeadlineStatusPending   = "pending"
	DeadlineStatusCompleted = "completed"
	DeadlineStatusOverdue   = "overdue"
)

var DeadlineStatuses = []string{DeadlineStatusPending, DeadlineStatusCompleted, DeadlineStatusOverdue}

const DefaultCurrency = "EUR"

type Deadline struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      string    `gorm:"type:char(36);not null;index:idx_deadlines_user_due,priority:1" json:"user_id"`
	Title       string    `gorm:"type:varchar(160);not null" json:"title"`
	DueDate     time.Time `gorm:"not null;index:idx_deadlines_user_due,priority:2" json:"due_date"`
	AmountCents *int64    `gorm:"default:null" json:"amount_cents"`
	Currency    string    `gorm:"type:char(3);not null;default:'EUR'" json:"currency"`
	Status      string    `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	Notes       *string   `gorm:"type:varchar(2000);default:null" json:"notes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Deadline) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
