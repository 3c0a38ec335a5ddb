package controllers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/aidraft"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/metrics"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/validation"
)

const (
	defaultDraftLanguage = "English"
	defaultDraftTone     = "Professional"
)

type aiDraftRequest struct {
	ContextType string  `json:"contextType" validate:"required,min=1,max=80"`
	Recipient   *string `json:"recipient" validate:"omitnil,email"`
	Language    string  `json:"language" validate:"min=2,max=40"`
	Tone        string  `json:"tone" validate:"min=2,max=40"`
	Prompt      string  `json:"prompt" validate:"required,min=10,max=5000"`
}

func (r *aiDraftRequest) ApplyDefaults() {
	r.ContextType = strings.TrimSpace(r.ContextType)
	r.Recipient = emptyToNil(r.Recipient)
	r.Language = strings.TrimSpace(r.Language)
	if r.Language == "" {
		r.Language = defaultDraftLanguage
	}
	r.Tone = strings.TrimSpace(r.Tone)
	if r.Tone == "" {
		r.Tone = defaultDraftTone
	}
	r.Prompt = strings.TrimSpace(r.Prompt)
}

// DraftCreator is satisfied by *aidraft.Service.
type DraftCreator interface {
	CreateDraft(ctx context.Context, userID string, req aidraft.Request) (*aidraft.Result, error)
}

// AIDraftController serves POST /api/ai/email-draft.
type AIDraftController struct {
	drafts  DraftCreator
	metrics metrics.Recorder
}

func NewAIDraftController(drafts DraftCreator, recorder metrics.Recorder) *AIDraftController {
	return &AIDraftController{drafts: drafts, metrics: recorder}
}

func (h *AIDraftController) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req aiDraftRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	result, err := h.drafts.CreateDraft(c.UserContext(), userID, aidraft.Request{
		ContextType: req.ContextType,
		Recipient:   req.Recipient,
		Language:    req.Language,
		Tone:        req.Tone,
		Prompt:      req.Prompt,
	})
	if err != nil {
		if apperror.IsKind(err, apperror.KindUpstreamTimeout) {
			h.metrics.RecordAIDraft(metrics.DraftTimeout)
		} else {
			h.metrics.RecordAIDraft(metrics.DraftFailure)
		}
		return err
	}

	h.metrics.RecordAIDraft(metrics.DraftCreated)
	for _, flag := range result.SafetyFlags {
		if flag == aidraft.FlagPromptRedacted {
			h.metrics.RecordAIDraft(metrics.DraftRedacted)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"subject":     result.Subject,
		"body":        result.Body,
		"safetyFlags": result.SafetyFlags,
		"item":        result.Draft,
	})
}
