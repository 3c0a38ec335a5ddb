package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
)

// Every user-owned query is scoped by user id here; handlers never see rows
// belonging to another user. Missing or foreign rows surface as gorm.ErrRecordNotFound.

// Page is a limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

// Updates maps column names to new values. A nil value writes NULL.
type Updates map[string]any

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*models.User, error)
	SaveAPIKey(ctx context.Context, user *models.User) error
	TouchAPIKeyUsage(ctx context.Context, userID string, at time.Time) error
}

type DeadlineFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Page
}

type DeadlineRepository interface {
	List(ctx context.Context, userID string, filter DeadlineFilter) ([]models.Deadline, error)
	Create(ctx context.Context, deadline *models.Deadline) error
	Update(ctx context.Context, userID, id string, updates Updates) (*models.Deadline, error)
	Delete(ctx context.Context, userID, id string) error
}

type ChecklistRepository interface {
	List(ctx context.Context, userID string, page Page) ([]models.Checklist, error)
	Create(ctx context.Context, checklist *models.Checklist) error
	GetWithItems(ctx context.Context, userID, id string) (*models.Checklist, error)
	Update(ctx context.Context, userID, id string, updates Updates) (*models.Checklist, error)
	Delete(ctx context.Context, userID, id string) error
	// AddItem appends to the checklist; a nil sortOrder places the item after the current last one.
	AddItem(ctx context.Context, userID, checklistID string, item *models.ChecklistItem, sortOrder *int) error
	UpdateItem(ctx context.Context, userID, itemID string, updates Updates) (*models.ChecklistItem, error)
	DeleteItem(ctx context.Context, userID, itemID string) error
}

type PaymentLogFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Page
}

type PaymentLogRepository interface {
	List(ctx context.Context, userID string, filter PaymentLogFilter) ([]models.PaymentLog, error)
	GetByID(ctx context.Context, userID, id string) (*models.PaymentLog, error)
	Create(ctx context.Context, log *models.PaymentLog) error
	Update(ctx context.Context, userID, id string, updates Updates) (*models.PaymentLog, error)
	Delete(ctx context.Context, userID, id string) error
}

type EmailDraftFilter struct {
	ContextType string
	Page
}

type EmailDraftRepository interface {
	Create(ctx context.Context, draft *models.EmailDraft) error
	List(ctx context.Context, userID string, filter EmailDraftFilter) ([]models.EmailDraft, error)
	Update(ctx context.Context, userID, id string, updates Updates) (*models.EmailDraft, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.TelemetryFeedback) error
}

// Repositories holds all repository instances
type Repositories struct {
	User       UserRepository
	Deadline   DeadlineRepository
	Checklist  ChecklistRepository
	PaymentLog PaymentLogRepository
	EmailDraft EmailDraftRepository
	Feedback   FeedbackRepository
}

// NewRepositories creates all repositories on one database handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Deadline:   NewDeadlineRepository(db),
		Checklist:  NewChecklistRepository(db),
		PaymentLog: NewPaymentLogRepository(db),
		EmailDraft: NewEmailDraftRepository(db),
		Feedback:   NewFeedbackRepository(db),
	}
}

// updateOwned applies updates to a row owned by userID and reloads it into dest.
func updateOwned(ctx context.Context, db *gorm.DB, dest any, userID, id string, updates Updates) error {
	tx := db.WithContext(ctx)
	if err := tx.Model(dest).Where("id = ? AND user_id = ?", id, userID).Updates(map[string]any(updates)).Error; err != nil {
		return err
	}
	return tx.Where("id = ? AND user_id = ?", id, userID).First(dest).Error
}

// deleteOwned removes a row owned by userID; nothing deleted means not found.
func deleteOwned(ctx context.Context, db *gorm.DB, model any, userID, id string) error {
	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// paginate applies the page window; a zero limit means no limit.
func paginate(query *gorm.DB, page Page) *gorm.DB {
	if page.Limit > 0 {
		query = query.Limit(page.Limit)
	}
	if page.Offset > 0 {
		query = query.Offset(page.Offset)
	}
	return query
}
