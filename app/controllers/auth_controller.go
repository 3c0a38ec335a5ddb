package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/database"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/validation"
)

const invalidCredentials = "Invalid email or password"

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (r *registerRequest) ApplyDefaults() {
	r.Email = models.NormalizeEmail(r.Email)
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *credentialsRequest) ApplyDefaults() {
	r.Email = models.NormalizeEmail(r.Email)
}

// AuthController issues API keys. The raw key is only ever returned once.
type AuthController struct {
	users repository.UserRepository
}

func NewAuthController(users repository.UserRepository) *AuthController {
	return &AuthController{users: users}
}

func (h *AuthController) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	user, err := models.CreateUser(req.Email, req.Password)
	if err != nil {
		return apperror.Internal("Failed to create user", err)
	}
	apiKey, err := user.IssueAPIKey()
	if err != nil {
		return apperror.Internal("Failed to issue API key", err)
	}

	if err := h.users.Create(c.UserContext(), user); err != nil {
		if database.IsDuplicateKey(err) {
			return apperror.Validation("Email is already registered", fiber.Map{
				"fieldErrors": map[string][]string{"email": {"is already registered"}},
			})
		}
		return err
	}

	log.Infof("[Auth] Registered user %s", user.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user, "apiKey": apiKey})
}

// RotateAPIKey replaces the caller's key after checking email and password.
func (h *AuthController) RotateAPIKey(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	user, err := h.users.GetByEmail(c.UserContext(), req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Auth(invalidCredentials)
		}
		return err
	}
	if !models.CheckPasswordHash(req.Password, user.PasswordHash) {
		return apperror.Auth(invalidCredentials)
	}
	if !user.IsActive() {
		return apperror.Auth("User inactive")
	}

	apiKey, err := user.IssueAPIKey()
	if err != nil {
		return apperror.Internal("Failed to issue API key", err)
	}
	if err := h.users.SaveAPIKey(c.UserContext(), user); err != nil {
		return err
	}

	log.Infof("[Auth] Rotated API key for user %s", user.ID)
	return c.JSON(fiber.Map{"apiKey": apiKey, "prefix": user.APIKeyPrefix})
}
