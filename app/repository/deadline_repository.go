package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
)

type deadlineRepository struct {
	db *gorm.DB
}

func NewDeadlineRepository(db *gorm.DB) DeadlineRepository {
	return &deadlineRepository{db: db}
}

// List returns the user's deadlines ordered by due date, soonest first.
func (r *deadlineRepository) List(ctx context.Context, userID string, filter DeadlineFilter) ([]models.Deadline, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("due_date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("due_date <= ?", filter.To.UTC())
	}

	deadlines := make([]models.Deadline, 0)
	err := paginate(query.Order("due_date ASC"), filter.Page).Find(&deadlines).Error
	return deadlines, err
}

func (r *deadlineRepository) Create(ctx context.Context, deadline *models.Deadline) error {
	return r.db.WithContext(ctx).Create(deadline).Error
}

func (r *deadlineRepository) Update(ctx context.Context, userID, id string, updates Updates) (*models.Deadline, error) {
	var deadline models.Deadline
	if err := updateOwned(ctx, r.db, &deadline, userID, id, updates); err != nil {
		return nil, err
	}
	return &deadline, nil
}

func (r *deadlineRepository) Delete(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, r.db, &models.Deadline{}, userID, id)
}
