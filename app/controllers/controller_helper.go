package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/usercontext"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/validation"
)

// currentUserID returns the authenticated user id set by the API key middleware.
func currentUserID(c *fiber.Ctx) (string, error) {
	userID := usercontext.GetUserID(c)
	if userID == "" {
		return "", apperror.Auth("Authentication required")
	}
	return userID, nil
}

// notFound turns a missing row into a NotFound error with the given message.
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(message)
	}
	return err
}

func pageFrom(p validation.Pagination) repository.Page {
	return repository.Page{Limit: p.Limit, Offset: p.Offset}
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// emptyToNil maps a blank optional string to nil.
func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func listResponse[T any](rows []T) fiber.Map {
	return fiber.Map{"items": rows}
}

func itemResponse(row any) fiber.Map {
	return fiber.Map{"item": row}
}
