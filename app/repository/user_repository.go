package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAPIKeyHash resolves an API key hash to its user.
func (r *userRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*models.User, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	if err := r.db.WithContext(ctx).Where("api_key_hash = ?", trimmed).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveAPIKey persists the key metadata set by User.IssueAPIKey.
func (r *userRepository) SaveAPIKey(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"api_key_hash":         user.APIKeyHash,
		"api_key_prefix":       user.APIKeyPrefix,
		"api_key_created_at":   user.APIKeyCreatedAt,
		"api_key_last_used_at": nil,
	}).Error
}

func (r *userRepository) TouchAPIKeyUsage(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("api_key_last_used_at", at).Error
}
