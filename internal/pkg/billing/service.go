package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
)

// Service applies verified provider events to local subscription state.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// RecordIfNew inserts the event into the ledger. It returns false when the
// event id was already recorded.
func (s *Service) RecordIfNew(ctx context.Context, eventID, eventType string) (bool, error) {
	id := strings.TrimSpace(eventID)
	if id == "" {
		return false, apperror.Validation("event id is required", nil)
	}

	event := &models.BillingWebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: id,
		EventType:       strings.TrimSpace(eventType),
		ProcessedAt:     s.now().UTC(),
	}
	created, err := s.repo.CreateWebhookEventIfNotExists(ctx, event)
	if err != nil {
		return false, fmt.Errorf("record webhook event %s: %w", id, err)
	}
	return created, nil
}

// Reconcile records the event and, the first time it is seen, applies it to
// the subscription of the user it belongs to.
func (s *Service) Reconcile(ctx context.Context, event ProviderEvent) (ReconcileResult, error) {
	isNew, err := s.RecordIfNew(ctx, event.ID, event.ProviderType)
	if err != nil {
		return ReconcileResult{}, err
	}
	if !isNew {
		log.Infof("[Billing] Duplicate event %s (%s) ignored", event.ID, event.ProviderType)
		return ReconcileResult{Duplicate: true}, nil
	}

	switch event.Type {
	case EventCheckoutCompleted:
		err = s.applyCheckout(ctx, event.Payload)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		err = s.applySubscription(ctx, event.Payload)
	case EventInvoicePaymentFailed:
		err = s.applyPaymentFailed(ctx, event.Payload)
	}
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("reconcile %s event %s: %w", event.Type, event.ID, err)
	}
	return ReconcileResult{Duplicate: false}, nil
}

func (s *Service) applyCheckout(ctx context.Context, payload json.RawMessage) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}
	userID := strings.TrimSpace(session.ClientReferenceID)
	if userID == "" {
		return nil
	}

	sub := &models.BillingSubscription{
		UserID:           userID,
		Plan:             models.PlanPro,
		Status:           models.BillingStatusActive,
		CurrentPeriodEnd: epochToTime(session.ExpiresAt),
	}
	if session.Customer != nil && session.Customer.ID != "" {
		sub.StripeCustomerID = &session.Customer.ID
	}
	if session.Subscription != nil && session.Subscription.ID != "" {
		sub.StripeSubscriptionID = &session.Subscription.ID
	}
	if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
		return err
	}
	log.Infof("[Billing] Checkout completed for user %s", userID)
	return nil
}

func (s *Service) applySubscription(ctx context.Context, payload json.RawMessage) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(payload, &subscription); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}
	userID := strings.TrimSpace(subscription.Metadata["user_id"])
	if userID == "" {
		return nil
	}

	status := MapStatus(string(subscription.Status))
	update := SubscriptionUpdate{
		Plan:             planForStatus(status),
		Status:           status,
		CurrentPeriodEnd: epochToTime(subscription.CurrentPeriodEnd),
	}
	if subscription.Customer != nil && subscription.Customer.ID != "" {
		update.StripeCustomerID = &subscription.Customer.ID
	}
	if subscription.ID != "" {
		update.StripeSubscriptionID = &subscription.ID
	}

	rows, err := s.repo.ApplySubscriptionState(ctx, userID, update)
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Warnf("[Billing] No subscription row for user %s, status %s not applied", userID, status)
	}
	return nil
}

func (s *Service) applyPaymentFailed(ctx context.Context, payload json.RawMessage) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(payload, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}
	userID := strings.TrimSpace(invoice.Metadata["user_id"])
	if userID == "" {
		return nil
	}

	// Plan stays as it is; only the status moves to past_due.
	rows, err := s.repo.MarkSubscriptionPastDue(ctx, userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Warnf("[Billing] No subscription row for user %s, payment failure not applied", userID)
	}
	return nil
}

// GetStatus returns the user's billing state. No row means free/inactive.
func (s *Service) GetStatus(ctx context.Context, userID string) (Status, error) {
	sub, err := s.repo.FindSubscriptionByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Status{Plan: models.PlanFree, Status: models.BillingStatusInactive}, nil
		}
		return Status{}, err
	}
	return Status{Plan: sub.Plan, Status: sub.Status, RenewalAt: sub.CurrentPeriodEnd}, nil
}

func epochToTime(seconds int64) *time.Time {
	if seconds <= 0 {
		return nil
	}
	t := time.Unix(seconds, 0).UTC()
	return &t
}
