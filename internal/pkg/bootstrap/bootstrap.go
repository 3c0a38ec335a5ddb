// Package bootstrap is the wiring root: it opens the infrastructure once and
// hands explicit handles to repositories, services and controllers.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	fiberredis "github.com/gofiber/storage/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/controllers"
	"github.com/deadline-assistant/deadline-assistant/app/repository"
	apiv1 "github.com/deadline-assistant/deadline-assistant/internal/api/v1"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/aidraft"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/billing"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/cache"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/config"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/database"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/metrics"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/proofstore"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/router"
)

// bodyLimit leaves room for a 10 MiB proof plus multipart overhead.
const bodyLimit = 12 * 1024 * 1024

// Dependencies are the handles the HTTP server is built from. Tests fill them
// with SQLite, in-memory limiter storage and fakes.
type Dependencies struct {
	DB             *gorm.DB
	LimiterStorage fiber.Storage
	Generator      aidraft.Generator
	Links          billing.LinkProvider
	Proofs         proofstore.Store
	Registry       *prometheus.Registry
}

// Application owns the server and the connections it was built on.
type Application struct {
	App    *fiber.App
	Config *config.Config

	db      *gorm.DB
	cache   *redis.Client
	limiter *fiberredis.Storage
}

// NewApplication connects MySQL, Redis and the optional proof bucket, then
// builds the fiber app.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := database.Open(cfg.DB, cfg.IsDev())
	if err != nil {
		return nil, err
	}

	cacheClient := cache.NewClient(cfg.Cache)
	limiterStorage := cache.NewLimiterStorage(cacheClient)

	deps := Dependencies{
		DB:             db,
		LimiterStorage: limiterStorage,
		Generator:      aidraft.NewOpenAIGenerator(cfg.OpenAI),
		Links:          billing.NewCheckoutLinks(cfg.Stripe, cfg.AppURL, nil),
		Registry:       prometheus.NewRegistry(),
	}

	s3Store, err := proofstore.NewS3Store(ctx, cfg.Proofs)
	if err != nil {
		_ = database.Close(db)
		_ = cacheClient.Close()
		return nil, fmt.Errorf("proof storage: %w", err)
	}
	// Keep Proofs a nil interface when storage is disabled.
	if s3Store != nil {
		deps.Proofs = s3Store
	} else {
		log.Info("[Bootstrap] Proof storage disabled")
	}

	if cfg.Stripe.WebhookSecret == "" {
		log.Warn("[Bootstrap] STRIPE_WEBHOOK_SECRET not set, billing webhooks will be rejected")
	}

	return &Application{
		App:     NewServer(cfg, deps),
		Config:  cfg,
		db:      db,
		cache:   cacheClient,
		limiter: limiterStorage,
	}, nil
}

// NewServer builds the fiber app with all routes installed.
func NewServer(cfg *config.Config, deps Dependencies) *fiber.App {
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	repos := repository.NewRepositories(deps.DB)
	drafts := aidraft.NewService(deps.Generator, repos.EmailDraft)

	app := fiber.New(fiber.Config{
		AppName:      "deadline-assistant " + cfg.AppVersion,
		ErrorHandler: apperror.Handler,
		BodyLimit:    bodyLimit,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	})

	ctl := router.Controllers{
		Health:     controllers.NewHealthController(cfg.AppVersion),
		Auth:       controllers.NewAuthController(repos.User),
		Deadline:   controllers.NewDeadlineController(repos.Deadline),
		Checklist:  controllers.NewChecklistController(repos.Checklist),
		PaymentLog: controllers.NewPaymentLogController(repos.PaymentLog, deps.Proofs),
		EmailDraft: controllers.NewEmailDraftController(repos.EmailDraft),
		AIDraft:    controllers.NewAIDraftController(drafts, collector),
		Billing:    controllers.NewBillingController(billing.NewServiceFromDB(deps.DB), deps.Links, cfg.Stripe.WebhookSecret, collector),
		Feedback:   controllers.NewFeedbackController(repos.Feedback),
	}

	router.InstallRouter(app,
		router.NewOpsRouter(collector, cfg.Monitor, apiv1.Spec()),
		router.NewApiRouter(ctl, repos.User, cfg, deps.LimiterStorage),
	)
	return app
}

// Check pings the database and the cache.
func (a *Application) Check(ctx context.Context) error {
	if err := database.Ping(a.db); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := cache.Ping(ctx, a.cache); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// Shutdown stops the server, then releases the connections.
func (a *Application) Shutdown(ctx context.Context) error {
	errs := []error{a.App.ShutdownWithContext(ctx)}
	if a.limiter != nil {
		errs = append(errs, a.limiter.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.db != nil {
		errs = append(errs, database.Close(a.db))
	}
	return errors.Join(errs...)
}
