package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/billing"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/metrics"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/usercontext"
)

// BillingService is satisfied by *billing.Service.
type BillingService interface {
	Reconcile(ctx context.Context, event billing.ProviderEvent) (billing.ReconcileResult, error)
	GetStatus(ctx context.Context, userID string) (billing.Status, error)
}

// BillingController serves /api/billing.
type BillingController struct {
	service       BillingService
	links         billing.LinkProvider
	webhookSecret string
	metrics       metrics.Recorder
}

func NewBillingController(service BillingService, links billing.LinkProvider, webhookSecret string, recorder metrics.Recorder) *BillingController {
	return &BillingController{
		service:       service,
		links:         links,
		webhookSecret: webhookSecret,
		metrics:       recorder,
	}
}

// Webhook verifies the Stripe signature before anything else, then records
// and applies the event. Redeliveries answer with duplicate=true.
func (h *BillingController) Webhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.Body()...)

	event, err := billing.ParseWebhook(rawBody, c.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		return err
	}

	result, err := h.service.Reconcile(c.UserContext(), event)
	if err != nil {
		h.metrics.RecordWebhookEvent(event.ProviderType, metrics.WebhookError)
		return err
	}

	if result.Duplicate {
		h.metrics.RecordWebhookEvent(event.ProviderType, metrics.WebhookDuplicate)
	} else {
		h.metrics.RecordWebhookEvent(event.ProviderType, metrics.WebhookProcessed)
	}
	return c.JSON(fiber.Map{"received": true, "duplicate": result.Duplicate})
}

func (h *BillingController) Status(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	status, err := h.service.GetStatus(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(status)
}

func (h *BillingController) PaymentLink(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	url, err := h.links.PaymentLink(c.UserContext(), billing.CheckoutRequest{
		UserID: userID,
		Email:  usercontext.GetUserContext(c).Email,
	})
	if err != nil {
		return err
	}
	log.Infof("[Billing] Payment link issued for user %s", userID)
	return c.JSON(fiber.Map{"url": url})
}
