package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/proofstore"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/validation"
)

const (
	paymentLogNotFound = "Payment log not found"
	sniffLength        = 512
)

type createPaymentLogRequest struct {
	Payee       string     `json:"payee" validate:"required,min=1,max=120"`
	AmountCents int64      `json:"amountCents" validate:"gt=0"`
	Currency    string     `json:"currency" validate:"currency"`
	PaidAt      *time.Time `json:"paidAt" validate:"required"`
	ProofURL    *string    `json:"proofUrl" validate:"omitnil,url"`
	Status      string     `json:"status" validate:"oneof=pending paid failed"`
}

func (r *createPaymentLogRequest) ApplyDefaults() {
	r.Payee = strings.TrimSpace(r.Payee)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = models.DefaultCurrency
	}
	if r.Status == "" {
		r.Status = models.PaymentStatusPending
	}
}

type patchPaymentLogRequest struct {
	Payee       *string                     `json:"payee" validate:"omitnil,min=1,max=120"`
	AmountCents *int64                      `json:"amountCents" validate:"omitnil,gt=0"`
	Currency    *string                     `json:"currency" validate:"omitnil,currency"`
	PaidAt      *time.Time                  `json:"paidAt"`
	ProofURL    validation.Nullable[string] `json:"proofUrl" validate:"omitempty,url"`
	Status      *string                     `json:"status" validate:"omitnil,oneof=pending paid failed"`
}

func (r *patchPaymentLogRequest) ApplyDefaults() {
	r.Payee = trimPtr(r.Payee)
	if r.Currency != nil {
		v := strings.ToUpper(strings.TrimSpace(*r.Currency))
		r.Currency = &v
	}
}

func (r *patchPaymentLogRequest) updates() repository.Updates {
	u := repository.Updates{}
	if r.Payee != nil {
		u["payee"] = *r.Payee
	}
	if r.AmountCents != nil {
		u["amount_cents"] = *r.AmountCents
	}
	if r.Currency != nil {
		u["currency"] = *r.Currency
	}
	if r.PaidAt != nil {
		u["paid_at"] = r.PaidAt.UTC()
	}
	if r.ProofURL.Set {
		u["proof_url"] = r.ProofURL.Update()
	}
	if r.Status != nil {
		u["status"] = *r.Status
	}
	return u
}

// PaymentLogController serves /api/payment-logs. proofs is nil when proof
// storage is disabled.
type PaymentLogController struct {
	logs   repository.PaymentLogRepository
	proofs proofstore.Store
}

func NewPaymentLogController(logs repository.PaymentLogRepository, proofs proofstore.Store) *PaymentLogController {
	return &PaymentLogController{logs: logs, proofs: proofs}
}

func (h *PaymentLogController) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	page, err := validation.ParsePagination(c)
	if err != nil {
		return err
	}
	status, err := validation.ParseEnumQuery(c, "status", models.PaymentStatuses...)
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

	logs, err := h.logs.List(c.UserContext(), userID, repository.PaymentLogFilter{
		Status: status,
		From:   from,
		To:     to,
		Page:   pageFrom(page),
	})
	if err != nil {
		return err
	}
	return c.JSON(listResponse(logs))
}

func (h *PaymentLogController) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req createPaymentLogRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	entry := &models.PaymentLog{
		UserID:      userID,
		Payee:       req.Payee,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		PaidAt:      req.PaidAt.UTC(),
		ProofURL:    req.ProofURL,
		Status:      req.Status,
	}
	if err := h.logs.Create(c.UserContext(), entry); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(itemResponse(entry))
}

func (h *PaymentLogController) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req patchPaymentLogRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return err
	}
	updates := req.updates()
	if len(updates) == 0 {
		return validation.EmptyPatch()
	}
	entry, err := h.logs.Update(c.UserContext(), userID, c.Params("id"), updates)
	if err != nil {
		return notFound(err, paymentLogNotFound)
	}
	return c.JSON(itemResponse(entry))
}

func (h *PaymentLogController) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.logs.Delete(c.UserContext(), userID, c.Params("id")); err != nil {
		return notFound(err, paymentLogNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UploadProof stores the multipart "file" field and points proof_url at it.
func (h *PaymentLogController) UploadProof(c *fiber.Ctx) error {
	if h.proofs == nil {
		return apperror.NotFound("Proof uploads are disabled")
	}
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()

	entry, err := h.logs.GetByID(ctx, userID, c.Params("id"))
	if err != nil {
		return notFound(err, paymentLogNotFound)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return apperror.Validation("A proof file is required", fiber.Map{
			"fieldErrors": map[string][]string{"file": {"is required"}},
		})
	}
	if fh.Size <= 0 {
		return apperror.Validation("The proof file is empty", nil)
	}
	if fh.Size > proofstore.MaxProofSize {
		return apperror.Validation(fmt.Sprintf("The proof file exceeds %d MB", proofstore.MaxProofSize>>20), nil)
	}

	f, err := fh.Open()
	if err != nil {
		return apperror.Internal("Failed to read the uploaded file", err)
	}
	defer f.Close()

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return apperror.Internal("Failed to read the uploaded file", err)
	}
	head = head[:n]

	mime, ext, err := proofstore.ValidateProofBySniff(fh.Filename, head)
	if err != nil {
		return err
	}

	result, err := h.proofs.Upload(ctx, proofstore.UploadInput{
		UserID:       userID,
		PaymentLogID: entry.ID,
		Extension:    ext,
		ContentType:  mime,
		Size:         fh.Size,
		Body:         io.MultiReader(bytes.NewReader(head), f),
	})
	if err != nil {
		log.Errorf("[Proofs] Upload for payment log %s failed: %v", entry.ID, err)
		return apperror.UpstreamFailure("Failed to store the proof document", err)
	}

	updated, err := h.logs.Update(ctx, userID, entry.ID, repository.Updates{"proof_url": result.URL})
	if err != nil {
		return notFound(err, paymentLogNotFound)
	}
	log.Infof("[Proofs] Stored %s (%d bytes) for payment log %s", result.ObjectKey, result.Size, entry.ID)
	return c.JSON(itemResponse(updated))
}
