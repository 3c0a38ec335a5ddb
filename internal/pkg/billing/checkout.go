package billing

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/config"
)

// CheckoutRequest identifies who is upgrading.
type CheckoutRequest struct {
	UserID string
	Email  string
}

// LinkProvider returns a URL the user can pay at.
type LinkProvider interface {
	PaymentLink(ctx context.Context, req CheckoutRequest) (string, error)
}

// CheckoutLinks serves the static payment link when configured and otherwise
// creates a Stripe checkout session for the pro price.
type CheckoutLinks struct {
	cfg    config.StripeConfig
	appURL string
	api    *client.API
}

// NewCheckoutLinks builds the provider. backends may be nil to use Stripe's defaults.
func NewCheckoutLinks(cfg config.StripeConfig, appURL string, backends *stripe.Backends) *CheckoutLinks {
	links := &CheckoutLinks{cfg: cfg, appURL: strings.TrimRight(appURL, "/")}
	if cfg.SecretKey != "" {
		links.api = client.New(cfg.SecretKey, backends)
	}
	return links
}

func (l *CheckoutLinks) PaymentLink(ctx context.Context, req CheckoutRequest) (string, error) {
	if l.cfg.PaymentLinkURL != "" {
		return l.cfg.PaymentLinkURL, nil
	}
	if l.cfg.PriceID == "" {
		return "", apperror.Internal("STRIPE_PRICE_ID is required when STRIPE_PAYMENT_LINK_URL is not set", nil)
	}
	if l.api == nil {
		return "", apperror.Internal("STRIPE_SECRET_KEY is required", nil)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(l.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(req.UserID),
		SuccessURL:        stripe.String(l.appURL + "/settings?upgrade=success"),
		CancelURL:         stripe.String(l.appURL + "/settings?upgrade=cancel"),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": req.UserID},
		},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx
	params.AddMetadata("user_id", req.UserID)

	session, err := l.api.CheckoutSessions.New(params)
	if err != nil {
		log.Errorf("[Billing] Failed to create checkout session for user %s: %v", req.UserID, err)
		return "", apperror.UpstreamFailure("Failed to create checkout session", err)
	}
	if session.URL == "" {
		return "", apperror.UpstreamFailure("Stripe did not provide a checkout URL", nil)
	}
	return session.URL, nil
}
