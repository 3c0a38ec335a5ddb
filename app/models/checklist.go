package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Checklist groups ordered items, e.g. the documents needed for a visa renewal.
type Checklist struct {
	ID        string          `gorm:"type:char(36);primaryKey" json:"id"`
	UserID    string          `gorm:"type:char(36);not null;index" json:"user_id"`
	Title     string          `gorm:"type:varchar(160);not null" json:"title"`
	Category  *string         `gorm:"type:varchar(80);default:null" json:"category"`
	Items     []ChecklistItem `gorm:"foreignKey:ChecklistID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Checklist) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// ChecklistItem has no user column, ownership follows its checklist.
type ChecklistItem struct {
	ID          string     `gorm:"type:char(36);primaryKey" json:"id"`
	ChecklistID string     `gorm:"type:char(36);not null;index:idx_checklist_items_order,priority:1" json:"checklist_id"`
	Label       string     `gorm:"type:varchar(240);not null" json:"label"`
	DueDate     *time.Time `gorm:"default:null" json:"due_date"`
	SortOrder   int        `gorm:"not null;default:0;index:idx_checklist_items_order,priority:2" json:"sort_order"`
	IsDone      bool       `gorm:"not null;default:false" json:"is_done"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *ChecklistItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
