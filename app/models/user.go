package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

// User owns every deadline, checklist, payment log and draft. Requests
// authenticate with the user's API key, only its hash is stored.
type User struct {
	ID               string     `gorm:"type:char(36);primaryKey" json:"id"`
	Email            string     `gorm:"type:varchar(200);uniqueIndex;not null" json:"email" validate:"required,email,max=200"`
	PasswordHash     string     `gorm:"type:varchar(100);not null" json:"-" validate:"required"`
	Status           string     `gorm:"type:varchar(20);not null;default:'active'" json:"status" validate:"oneof=active disabled"`
	APIKeyHash       *string    `gorm:"type:char(64);uniqueIndex" json:"-"`
	APIKeyPrefix     string     `gorm:"type:varchar(20);not null;default:''" json:"api_key_prefix"`
	APIKeyCreatedAt  *time.Time `gorm:"default:null" json:"api_key_created_at"`
	APIKeyLastUsedAt *time.Time `gorm:"default:null" json:"api_key_last_used_at"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) Validate() error {
	return validator.New().Struct(u)
}

// CreateUser builds an active user with a bcrypt password hash. The caller persists it.
func CreateUser(email, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        NormalizeEmail(email),
		PasswordHash: pw,
		Status:       STATUS_ACTIVE,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}
