package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EmailDraftStatusDraft = "draft"
	EmailDraftStatusFinal = "final"
)

// EmailDraft is created by the AI draft pipeline and edited by its owner afterwards.
// InputJSON only ever holds the redacted prompt.
type EmailDraft struct {
	ID          string                       `gorm:"type:char(36);primaryKey" json:"id"`
	UserID      string                       `gorm:"type:char(36);not null;index:idx_email_drafts_user_created,priority:1" json:"user_id"`
	ContextType string                       `gorm:"type:varchar(80);not null;index" json:"context_type"`
	Recipient   *string                      `gorm:"type:varchar(254);default:null" json:"recipient"`
	Language    string                       `gorm:"type:varchar(40);not null" json:"language"`
	Tone        string                       `gorm:"type:varchar(80);not null" json:"tone"`
	InputJSON   datatypes.JSONMap            `json:"input_json"`
	SafetyFlags datatypes.JSONType[[]string] `json:"safety_flags"`
	Subject     string                       `gorm:"type:varchar(240);not null" json:"subject"`
	Body        string                       `gorm:"type:text;not null" json:"body"`
	Status      string                       `gorm:"type:varchar(16);not null;default:'draft'" json:"status"`
	CreatedAt   time.Time                    `gorm:"autoCreateTime;index:idx_email_drafts_user_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *EmailDraft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// StoredPrompt returns the prompt persisted with the draft.
func (d *EmailDraft) StoredPrompt() string {
	if d.InputJSON == nil {
		return ""
	}
	p, _ := d.InputJSON["prompt"].(string)
	return p
}
