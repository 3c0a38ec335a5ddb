package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
)

type emailDraftRepository struct {
	db *gorm.DB
}

func NewEmailDraftRepository(db *gorm.DB) EmailDraftRepository {
	return &emailDraftRepository{db: db}
}

func (r *emailDraftRepository) Create(ctx context.Context, draft *models.EmailDraft) error {
	return r.db.WithContext(ctx).Create(draft).Error
}

// List returns the user's drafts, newest first.
func (r *emailDraftRepository) List(ctx context.Context, userID string, filter EmailDraftFilter) ([]models.EmailDraft, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.ContextType != "" {
		query = query.Where("context_type = ?", filter.ContextType)
	}

	drafts := make([]models.EmailDraft, 0)
	err := paginate(query.Order("created_at DESC"), filter.Page).Find(&drafts).Error
	return drafts, err
}

func (r *emailDraftRepository) Update(ctx context.Context, userID, id string, updates Updates) (*models.EmailDraft, error) {
	var draft models.EmailDraft
	if err := updateOwned(ctx, r.db, &draft, userID, id, updates); err != nil {
		return nil, err
	}
	return &draft, nil
}
