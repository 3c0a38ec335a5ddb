package billing

import (
	"strings"

	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
)

// ParseWebhook verifies the Stripe-Signature header against the raw body and
// returns the event. Verification happens before the payload is trusted.
func ParseWebhook(payload []byte, signatureHeader, secret string) (ProviderEvent, error) {
	if strings.TrimSpace(secret) == "" {
		return ProviderEvent{}, apperror.Internal("STRIPE_WEBHOOK_SECRET is required", nil)
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return ProviderEvent{}, apperror.Validation("Missing stripe-signature header", nil)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return ProviderEvent{}, apperror.Validation("Invalid Stripe webhook signature", nil)
	}

	out := ProviderEvent{
		ID:           event.ID,
		ProviderType: string(event.Type),
		Type:         EventTypeFromProvider(string(event.Type)),
	}
	if event.Data != nil {
		out.Payload = event.Data.Raw
	}
	return out, nil
}
