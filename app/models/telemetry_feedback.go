package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

type TelemetryFeedback struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string    `gorm:"type:char(36);not null;index" json:"user_id"`
	Sentiment string    `gorm:"type:varchar(16);not null" json:"sentiment"`
	Message   string    `gorm:"type:varchar(2000);not null" json:"message"`
	Page      string    `gorm:"type:varchar(120);not null" json:"page"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TelemetryFeedback) TableName() string {
	return "telemetry_feedback"
}

func (f *TelemetryFeedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
