package billing

import (
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v76"
)

// EventType is the provider-neutral classification of a billing webhook.
type EventType string

const (
	EventCheckoutCompleted    EventType = "checkout_completed"
	EventSubscriptionUpdated  EventType = "subscription_updated"
	EventSubscriptionDeleted  EventType = "subscription_deleted"
	EventInvoicePaymentFailed EventType = "invoice_payment_failed"
	EventOther                EventType = "other"
)

// EventTypeFromProvider maps a raw Stripe event type onto EventType.
func EventTypeFromProvider(providerType string) EventType {
	switch stripe.EventType(providerType) {
	case stripe.EventTypeCheckoutSessionCompleted:
		return EventCheckoutCompleted
	case stripe.EventTypeCustomerSubscriptionUpdated:
		return EventSubscriptionUpdated
	case stripe.EventTypeCustomerSubscriptionDeleted:
		return EventSubscriptionDeleted
	case stripe.EventTypeInvoicePaymentFailed:
		return EventInvoicePaymentFailed
	default:
		return EventOther
	}
}

// ProviderEvent is a verified webhook delivery. Payload holds the raw
// data.object of the provider event.
type ProviderEvent struct {
	ID           string
	Type         EventType
	ProviderType string
	Payload      json.RawMessage
}

// ReconcileResult reports whether the event had already been processed.
type ReconcileResult struct {
	Duplicate bool `json:"duplicate"`
}

// SubscriptionUpdate is written in one statement to an existing subscription row.
type SubscriptionUpdate struct {
	Plan                 string
	Status               string
	StripeCustomerID     *string
	StripeSubscriptionID *string
	CurrentPeriodEnd     *time.Time
}

// Status is the billing state exposed to the owning user.
type Status struct {
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	RenewalAt *time.Time `json:"renewalAt"`
}
