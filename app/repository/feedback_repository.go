package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
)

type feedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) Create(ctx context.Context, feedback *models.TelemetryFeedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}
