package router

import (
	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/config"
)

// MetricsProvider is implemented by metrics.Collector.
type MetricsProvider interface {
	Middleware() fiber.Handler
	Handler() fiber.Handler
}

// OpsRouter installs the global middleware and the operational endpoints:
// Prometheus metrics, the fiber monitor and the API docs.
type OpsRouter struct {
	Metrics MetricsProvider
	Monitor config.MonitorConfig
	// OpenAPI is the YAML document served under /docs/api/v1. Docs are off when empty.
	OpenAPI []byte
}

func (h OpsRouter) InstallRouter(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} | ${locals:requestid} | ${status} | ${latency} | ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))

	if h.Metrics != nil {
		app.Use(h.Metrics.Middleware())
		app.Get("/metrics", h.Metrics.Handler())
	}

	if h.Monitor.Password != "" {
		app.Get("/monitor", basicauth.New(basicauth.Config{
			Users: map[string]string{h.Monitor.User: h.Monitor.Password},
		}), monitor.New(monitor.Config{Title: "Deadline Assistant Monitor"}))
	} else {
		log.Warn("[Router] MONITOR_PASSWORD not set, /monitor is disabled")
	}

	if len(h.OpenAPI) > 0 {
		app.Use(swagger.New(swagger.Config{
			BasePath:    "/docs/api/",
			FilePath:    "openapi.yml",
			FileContent: h.OpenAPI,
			Path:        "v1",
			Title:       "Deadline Assistant API",
		}))
	}
}

func NewOpsRouter(metrics MetricsProvider, monitor config.MonitorConfig, openAPI []byte) *OpsRouter {
	return &OpsRouter{Metrics: metrics, Monitor: monitor, OpenAPI: openAPI}
}
