// Package metrics collects Prometheus metrics and exposes them on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookError     = "error"

	DraftCreated  = "created"
	DraftRedacted = "redacted"
	DraftTimeout  = "timeout"
	DraftFailure  = "failure"
)

// Recorder is what handlers report to. Tests use a Collector on a private registry.
type Recorder interface {
	RecordWebhookEvent(eventType, result string)
	RecordAIDraft(result string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	webhookEvents *prometheus.CounterVec
	aiDrafts      *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	gatherer      prometheus.Gatherer
}

// NewCollector registers all metrics on reg. reg must also be a Gatherer.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_billing_webhook_events_total",
			Help: "Billing webhook events by event type and outcome",
		}, []string{"event_type", "result"}),
		aiDrafts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_ai_drafts_total",
			Help: "AI email draft requests by outcome",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assistant_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gatherer: reg,
	}

	reg.MustRegister(
		c.webhookEvents,
		c.aiDrafts,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) RecordWebhookEvent(eventType, result string) {
	c.webhookEvents.WithLabelValues(eventType, result).Inc()
}

func (c *Collector) RecordAIDraft(result string) {
	c.aiDrafts.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency per matched route.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			}
		}
		route := ctx.Route().Path
		c.httpRequests.WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).Inc()
		c.httpLatency.WithLabelValues(ctx.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the Prometheus exposition format through fiber.
func (c *Collector) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{}))
}
