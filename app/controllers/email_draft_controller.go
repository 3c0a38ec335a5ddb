package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/validation"
)

const emailDraftNotFound = "Email draft not found"

type patchEmailDraftRequest struct {
	Subject  *string `json:"subject" validate:"omitnil,min=1,max=240"`
	Body     *string `json:"body" validate:"omitnil,min=1,max=12000"`
	Status   *string `json:"status" validate:"omitnil,oneof=draft final"`
	Tone     *string `json:"tone" validate:"omitnil,max=80"`
	Language *string `json:"language" validate:"omitnil,max=40"`
}

func (r *patchEmailDraftRequest) ApplyDefaults() {
	r.Subject = trimPtr(r.Subject)
	r.Tone = trimPtr(r.Tone)
	r.Language = trimPtr(r.Language)
}

func (r *patchEmailDraftRequest) updates() repository.Updates {
	u := repository.Updates{}
	if r.Subject != nil {
		u["subject"] = *r.Subject
	}
	if r.Body != nil {
		u["body"] = *r.Body
	}
	if r.Status != nil {
		u["status"] = *r.Status
	}
	if r.Tone != nil {
		u["tone"] = *r.Tone
	}
	if r.Language != nil {
		u["language"] = *r.Language
	}
	return u
}

// EmailDraftController serves /api/email-drafts. Drafts are created by the AI pipeline.
type EmailDraftController struct {
	drafts repository.EmailDraftRepository
}

func NewEmailDraftController(drafts repository.EmailDraftRepository) *EmailDraftController {
	return &EmailDraftController{drafts: drafts}
}

func (h *EmailDraftController) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	page, err := validation.ParsePagination(c)
	if err != nil {
		return err
	}
	drafts, err := h.drafts.List(c.UserContext(), userID, repository.EmailDraftFilter{
		ContextType: strings.TrimSpace(c.Query("contextType")),
		Page:        pageFrom(page),
	})
	if err != nil {
		return err
	}
	return c.JSON(listResponse(drafts))
}

func (h *EmailDraftController) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req patchEmailDraftRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	updates := req.updates()
	if len(updates) == 0 {
		return validation.EmptyPatch()
	}
	draft, err := h.drafts.Update(c.UserContext(), userID, c.Params("id"), updates)
	if err != nil {
		return notFound(err, emailDraftNotFound)
	}
	return c.JSON(itemResponse(draft))
}
