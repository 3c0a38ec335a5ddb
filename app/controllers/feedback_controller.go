package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/validation"
)

type feedbackRequest struct {
	Sentiment string `json:"sentiment" validate:"required,oneof=positive neutral negative"`
	Message   string `json:"message" validate:"required,min=1,max=2000"`
	Page      string `json:"page" validate:"required,min=1,max=120"`
}

func (r *feedbackRequest) ApplyDefaults() {
	r.Message = strings.TrimSpace(r.Message)
	r.Page = strings.TrimSpace(r.Page)
}

// FeedbackController serves POST /api/telemetry/feedback. The route is only
// mounted behind the telemetry feature flag.
type FeedbackController struct {
	feedback repository.FeedbackRepository
}

func NewFeedbackController(feedback repository.FeedbackRepository) *FeedbackController {
	return &FeedbackController{feedback: feedback}
}

func (h *FeedbackController) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req feedbackRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	if err := h.feedback.Create(c.UserContext(), &models.TelemetryFeedback{
		UserID:    userID,
		Sentiment: req.Sentiment,
		Message:   req.Message,
		Page:      req.Page,
	}); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
}
