package billing

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/database"
)

// Repository provides DB operations used by the billing service. Each
// subscription mutation is a single statement.
type Repository interface {
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, error)
	UpsertSubscription(ctx context.Context, sub *models.BillingSubscription) error
	ApplySubscriptionState(ctx context.Context, userID string, update SubscriptionUpdate) (int64, error)
	MarkSubscriptionPastDue(ctx context.Context, userID string) (int64, error)
	FindSubscriptionByUser(ctx context.Context, userID string) (*models.BillingSubscription, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// CreateWebhookEventIfNotExists inserts the ledger row and reports whether
// this call created it. A unique-key conflict is not an error.
func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		if database.IsDuplicateKey(tx.Error) {
			return false, nil
		}
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// UpsertSubscription writes the row keyed by user_id, overwriting billing
// identifiers of an earlier checkout.
func (r *gormRepository) UpsertSubscription(ctx context.Context, sub *models.BillingSubscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan",
			"status",
			"stripe_customer_id",
			"stripe_subscription_id",
			"current_period_end",
			"updated_at",
		}),
	}).Create(sub).Error
}

func (r *gormRepository) ApplySubscriptionState(ctx context.Context, userID string, update SubscriptionUpdate) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.BillingSubscription{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"plan":                   update.Plan,
			"status":                 update.Status,
			"stripe_customer_id":     update.StripeCustomerID,
			"stripe_subscription_id": update.StripeSubscriptionID,
			"current_period_end":     update.CurrentPeriodEnd,
		})
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) MarkSubscriptionPastDue(ctx context.Context, userID string) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.BillingSubscription{}).
		Where("user_id = ?", userID).
		Update("status", models.BillingStatusPastDue)
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) FindSubscriptionByUser(ctx context.Context, userID string) (*models.BillingSubscription, error) {
	var sub models.BillingSubscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}
