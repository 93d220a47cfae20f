package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	DEFAULT_PROMETHEUS_PORT = 2112
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method", "status"},
	)

	rateLimitDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_decisions_total",
			Help: "Rate limiter outcomes by endpoint",
		},
		[]string{"endpoint", "decision"},
	)

	hintsCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hints_cache_lookups_total",
			Help: "Hints cache lookups by result",
		},
		[]string{"kind", "result"},
	)

	upstreamRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "LLM upstream call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "status"},
	)
)

type MonitoringService struct {
	context.DefaultService

	port int
	app  *fiber.App
}

func (svc MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *context.Context) error {
	svc.port = DEFAULT_PROMETHEUS_PORT
	if port := os.Getenv("PROMETHEUS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			svc.port = p
		}
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) Start() error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequestsTotal,
		httpRequestDurationSeconds,
		rateLimitDecisionsTotal,
		hintsCacheLookupsTotal,
		upstreamRequestDurationSeconds,
	)

	svc.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	svc.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	go func() {
		if err := svc.app.Listen(fmt.Sprintf(":%d", svc.port)); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()

	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

func (svc *MonitoringService) RecordRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(duration.Seconds())
}

func (svc *MonitoringService) RecordRateLimitDecision(endpoint, decision string) {
	rateLimitDecisionsTotal.WithLabelValues(endpoint, decision).Inc()
}

func (svc *MonitoringService) RecordCacheLookup(kind, result string) {
	hintsCacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

func (svc *MonitoringService) RecordUpstreamCall(provider, status string, duration time.Duration) {
	upstreamRequestDurationSeconds.WithLabelValues(provider, status).Observe(duration.Seconds())
}

// MonitoringMiddleware records request counts and latency per route.
func MonitoringMiddleware(monSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		monSvc.RecordRequest(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
