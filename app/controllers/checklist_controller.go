package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/validation"
)

const (
	checklistNotFound     = "Checklist not found"
	checklistItemNotFound = "Checklist item not found"
)

type createChecklistRequest struct {
	Title    string  `json:"title" validate:"required,min=1,max=160"`
	Category *string `json:"category" validate:"omitnil,max=80"`
}

func (r *createChecklistRequest) ApplyDefaults() {
	r.Title = strings.TrimSpace(r.Title)
	r.Category = emptyToNil(r.Category)
}

type patchChecklistRequest struct {
	Title    *string                     `json:"title" validate:"omitnil,min=1,max=160"`
	Category validation.Nullable[string] `json:"category" validate:"omitempty,max=80"`
}

func (r *patchChecklistRequest) ApplyDefaults() {
	r.Title = trimPtr(r.Title)
}

func (r *patchChecklistRequest) updates() repository.Updates {
	u := repository.Updates{}
	if r.Title != nil {
		u["title"] = *r.Title
	}
	if r.Category.Set {
		u["category"] = r.Category.Update()
	}
	return u
}

type createChecklistItemRequest struct {
	Label     string     `json:"label" validate:"required,min=1,max=240"`
	DueDate   *time.Time `json:"dueDate"`
	SortOrder *int       `json:"sortOrder" validate:"omitnil,min=0"`
}

func (r *createChecklistItemRequest) ApplyDefaults() {
	r.Label = strings.TrimSpace(r.Label)
}

type patchChecklistItemRequest struct {
	Label     *string                        `json:"label" validate:"omitnil,min=1,max=240"`
	DueDate   validation.Nullable[time.Time] `json:"dueDate"`
	SortOrder *int                           `json:"sortOrder" validate:"omitnil,min=0"`
	IsDone    *bool                          `json:"isDone"`
}

func (r *patchChecklistItemRequest) ApplyDefaults() {
	r.Label = trimPtr(r.Label)
}

func (r *patchChecklistItemRequest) updates() repository.Updates {
	u := repository.Updates{}
	if r.Label != nil {
		u["label"] = *r.Label
	}
	if r.DueDate.Set {
		if due := r.DueDate.Ptr(); due != nil {
			u["due_date"] = due.UTC()
		} else {
			u["due_date"] = nil
		}
	}
	if r.SortOrder != nil {
		u["sort_order"] = *r.SortOrder
	}
	if r.IsDone != nil {
		u["is_done"] = *r.IsDone
	}
	return u
}

// ChecklistController serves /api/checklists and /api/checklist-items.
type ChecklistController struct {
	checklists repository.ChecklistRepository
}

func NewChecklistController(checklists repository.ChecklistRepository) *ChecklistController {
	return &ChecklistController{checklists: checklists}
}

func (h *ChecklistController) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	page, err := validation.ParsePagination(c)
	if err != nil {
		return err
	}
	checklists, err := h.checklists.List(c.UserContext(), userID, pageFrom(page))
	if err != nil {
		return err
	}
	return c.JSON(listResponse(checklists))
}

func (h *ChecklistController) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req createChecklistRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	checklist := &models.Checklist{
		UserID:   userID,
		Title:    req.Title,
		Category: req.Category,
	}
	if err := h.checklists.Create(c.UserContext(), checklist); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(itemResponse(checklist))
}

// Get returns the checklist as item and its ordered entries as items.
func (h *ChecklistController) Get(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	checklist, err := h.checklists.GetWithItems(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return notFound(err, checklistNotFound)
	}
	entries := checklist.Items
	checklist.Items = nil
	return c.JSON(fiber.Map{"item": checklist, "items": entries})
}

func (h *ChecklistController) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req patchChecklistRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	updates := req.updates()
	if len(updates) == 0 {
		return validation.EmptyPatch()
	}
	checklist, err := h.checklists.Update(c.UserContext(), userID, c.Params("id"), updates)
	if err != nil {
		return notFound(err, checklistNotFound)
	}
	return c.JSON(itemResponse(checklist))
}

func (h *ChecklistController) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.checklists.Delete(c.UserContext(), userID, c.Params("id")); err != nil {
		return notFound(err, checklistNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ChecklistController) AddItem(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req createChecklistItemRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	entry := &models.ChecklistItem{Label: req.Label}
	if req.DueDate != nil {
		due := req.DueDate.UTC()
		entry.DueDate = &due
	}
	if err := h.checklists.AddItem(c.UserContext(), userID, c.Params("id"), entry, req.SortOrder); err != nil {
		return notFound(err, checklistNotFound)
	}
	return c.Status(fiber.StatusCreated).JSON(itemResponse(entry))
}

func (h *ChecklistController) UpdateItem(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req patchChecklistItemRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	updates := req.updates()
	if len(updates) == 0 {
		return validation.EmptyPatch()
	}
	entry, err := h.checklists.UpdateItem(c.UserContext(), userID, c.Params("id"), updates)
	if err != nil {
		return notFound(err, checklistItemNotFound)
	}
	return c.JSON(itemResponse(entry))
}

func (h *ChecklistController) DeleteItem(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.checklists.DeleteItem(c.UserContext(), userID, c.Params("id")); err != nil {
		return notFound(err, checklistItemNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
