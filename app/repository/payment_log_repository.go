package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
)

type paymentLogRepository struct {
	db *gorm.DB
}

func NewPaymentLogRepository(db *gorm.DB) PaymentLogRepository {
	return &paymentLogRepository{db: db}
}

// List returns the user's payment logs, most recent payment first.
func (r *paymentLogRepository) List(ctx context.Context, userID string, filter PaymentLogFilter) ([]models.PaymentLog, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("paid_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("paid_at <= ?", filter.To.UTC())
	}

	logs := make([]models.PaymentLog, 0)
	err := paginate(query.Order("paid_at DESC"), filter.Page).Find(&logs).Error
	return logs, err
}

func (r *paymentLogRepository) GetByID(ctx context.Context, userID, id string) (*models.PaymentLog, error) {
	var log models.PaymentLog
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *paymentLogRepository) Create(ctx context.Context, log *models.PaymentLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *paymentLogRepository) Update(ctx context.Context, userID, id string, updates Updates) (*models.PaymentLog, error) {
	var log models.PaymentLog
	if err := updateOwned(ctx, r.db, &log, userID, id, updates); err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *paymentLogRepository) Delete(ctx context.Context, userID, id string) error {
	return deleteOwned(ctx, r.db, &models.PaymentLog{}, userID, id)
}
