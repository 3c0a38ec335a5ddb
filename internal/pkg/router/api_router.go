package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/deadline-assistant/deadline-assistant/app/controllers"
	"github.com/deadline-assistant/deadline-assistant/app/repository"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/config"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/middleware"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/usercontext"
)

// Controllers groups the handlers mounted under /api.
type Controllers struct {
	Health     *controllers.HealthController
	Auth       *controllers.AuthController
	Deadline   *controllers.DeadlineController
	Checklist  *controllers.ChecklistController
	PaymentLog *controllers.PaymentLogController
	EmailDraft *controllers.EmailDraftController
	AIDraft    *controllers.AIDraftController
	Billing    *controllers.BillingController
	Feedback   *controllers.FeedbackController
}

type ApiRouter struct {
	Controllers Controllers
	Users       repository.UserRepository
	Features    config.FeatureFlags
	Limits      config.RateLimits
	// LimiterStorage shares rate limit counters between instances. nil keeps them in memory.
	LimiterStorage fiber.Storage
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	ctl := h.Controllers

	api := app.Group("/api", h.rateLimit(h.Limits.APIPerMinute, func(c *fiber.Ctx) string {
		return "api:" + c.IP()
	}))

	// Public. Registered before the protected group, whose middleware matches every /api path.
	api.Get("/health", ctl.Health.Health)
	api.Post("/auth/register", ctl.Auth.Register)
	api.Post("/auth/api-key", ctl.Auth.RotateAPIKey)
	api.Post("/billing/webhook", ctl.Billing.Webhook)

	// API key protected
	protected := api.Group("", middleware.APIKeyAuth(h.Users), middleware.RequireAuth)

	protected.Get("/deadlines", ctl.Deadline.List)
	protected.Post("/deadlines", ctl.Deadline.Create)
	protected.Patch("/deadlines/:id", ctl.Deadline.Update)
	protected.Delete("/deadlines/:id", ctl.Deadline.Delete)

	protected.Get("/checklists", ctl.Checklist.List)
	protected.Post("/checklists", ctl.Checklist.Create)
	protected.Get("/checklists/:id", ctl.Checklist.Get)
	protected.Patch("/checklists/:id", ctl.Checklist.Update)
	protected.Delete("/checklists/:id", ctl.Checklist.Delete)
	protected.Post("/checklists/:id/items", ctl.Checklist.AddItem)
	protected.Patch("/checklist-items/:id", ctl.Checklist.UpdateItem)
	protected.Delete("/checklist-items/:id", ctl.Checklist.DeleteItem)

	protected.Get("/payment-logs", ctl.PaymentLog.List)
	protected.Post("/payment-logs", ctl.PaymentLog.Create)
	protected.Patch("/payment-logs/:id", ctl.PaymentLog.Update)
	protected.Delete("/payment-logs/:id", ctl.PaymentLog.Delete)
	protected.Post("/payment-logs/:id/proof", ctl.PaymentLog.UploadProof)

	protected.Get("/email-drafts", ctl.EmailDraft.List)
	protected.Patch("/email-drafts/:id", ctl.EmailDraft.Update)
	protected.Post("/ai/email-draft", h.rateLimit(h.Limits.AIDraftPerMinute, func(c *fiber.Ctx) string {
		return "ai:" + usercontext.GetUserID(c)
	}), ctl.AIDraft.Create)

	protected.Get("/billing/status", ctl.Billing.Status)
	protected.Get("/billing/payment-link",
		middleware.RequireFeature(h.Features.BillingLink, "Billing link helper is disabled"),
		ctl.Billing.PaymentLink)

	protected.Post("/telemetry/feedback",
		middleware.RequireFeature(h.Features.TelemetryFeedback, "Feedback is disabled"),
		ctl.Feedback.Create)
}

func (h ApiRouter) rateLimit(limit int, key func(*fiber.Ctx) string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          limit,
		Expiration:   time.Minute,
		KeyGenerator: key,
		Storage:      h.LimiterStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, try again later")
		},
	})
}

func NewApiRouter(ctl Controllers, users repository.UserRepository, cfg *config.Config, storage fiber.Storage) *ApiRouter {
	return &ApiRouter{
		Controllers:    ctl,
		Users:          users,
		Features:       cfg.Features,
		Limits:         cfg.Limits,
		LimiterStorage: storage,
	}
}
