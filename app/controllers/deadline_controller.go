package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/validation"
)

const deadlineNotFound = "Deadline not found"

type createDeadlineRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=160"`
	DueDate     *time.Time `json:"dueDate" validate:"required"`
	AmountCents *int64     `json:"amountCents" validate:"omitnil,min=0"`
	Currency    string     `json:"currency" validate:"currency"`
	Status      string     `json:"status" validate:"oneof=pending completed overdue"`
	Notes       *string    `json:"notes" validate:"omitnil,max=2000"`
}

func (r *createDeadlineRequest) ApplyDefaults() {
	r.Title = strings.TrimSpace(r.Title)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = models.DefaultCurrency
	}
	if r.Status == "" {
		r.Status = models.DeadlineStatusPending
	}
}

type patchDeadlineRequest struct {
	Title       *string                     `json:"title" validate:"omitnil,min=1,max=160"`
	DueDate     *time.Time                  `json:"dueDate"`
	AmountCents validation.Nullable[int64]  `json:"amountCents" validate:"omitempty,min=0"`
	Currency    *string                     `json:"currency" validate:"omitnil,currency"`
	Status      *string                     `json:"status" validate:"omitnil,oneof=pending completed overdue"`
	Notes       validation.Nullable[string] `json:"notes" validate:"omitempty,max=2000"`
}

func (r *patchDeadlineRequest) ApplyDefaults() {
	r.Title = trimPtr(r.Title)
	if r.Currency != nil {
		v := strings.ToUpper(strings.TrimSpace(*r.Currency))
		r.Currency = &v
	}
}

func (r *patchDeadlineRequest) updates() repository.Updates {
	u := repository.Updates{}
	if r.Title != nil {
		u["title"] = *r.Title
	}
	if r.DueDate != nil {
		u["due_date"] = r.DueDate.UTC()
	}
	if r.AmountCents.Set {
		u["amount_cents"] = r.AmountCents.Update()
	}
	if r.Currency != nil {
		u["currency"] = *r.Currency
	}
	if r.Status != nil {
		u["status"] = *r.Status
	}
	if r.Notes.Set {
		u["notes"] = r.Notes.Update()
	}
	return u
}

// DeadlineController serves /api/deadlines.
type DeadlineController struct {
	deadlines repository.DeadlineRepository
}

func NewDeadlineController(deadlines repository.DeadlineRepository) *DeadlineController {
	return &DeadlineController{deadlines: deadlines}
}

func (h *DeadlineController) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	page, err := validation.ParsePagination(c)
	if err != nil {
		return err
	}
	status, err := validation.ParseEnumQuery(c, "status", models.DeadlineStatuses...)
	if err != nil {
		return err
	}
	from, err := validation.ParseTimeQuery(c, "from")
	if err != nil {
		return err
	}
	to, err := validation.ParseTimeQuery(c, "to")
	if err != nil {
		return err
	}

	deadlines, err := h.deadlines.List(c.UserContext(), userID, repository.DeadlineFilter{
		Status: status,
		From:   from,
		To:     to,
		Page:   pageFrom(page),
	})
	if err != nil {
		return err
	}
	return c.JSON(listResponse(deadlines))
}

func (h *DeadlineController) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req createDeadlineRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}

	deadline := &models.Deadline{
		UserID:      userID,
		Title:       req.Title,
		DueDate:     req.DueDate.UTC(),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Status:      req.Status,
		Notes:       req.Notes,
	}
	if err := h.deadlines.Create(c.UserContext(), deadline); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(itemResponse(deadline))
}

func (h *DeadlineController) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req patchDeadlineRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	updates := req.updates()
	if len(updates) == 0 {
		return validation.EmptyPatch()
	}

	deadline, err := h.deadlines.Update(c.UserContext(), userID, c.Params("id"), updates)
	if err != nil {
		return notFound(err, deadlineNotFound)
	}
	return c.JSON(itemResponse(deadline))
}

func (h *DeadlineController) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.deadlines.Delete(c.UserContext(), userID, c.Params("id")); err != nil {
		return notFound(err, deadlineNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
