// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_signups_total",
			Help: "Accounts created, by provenance",
		},
		[]string{"provenance"},
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_logins_total",
			Help: "Login attempts by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	PictureUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounts_picture_uploads_total",
			Help: "Profile picture uploads by outcome",
		},
		[]string{"outcome"},
	)

	PictureCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_picture_cleanup_failures_total",
			Help: "Superseded or detached pictures that could not be deleted from storage",
		},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Outcome maps an error to a label value.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// Middleware records request latency by matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}
		RequestDuration.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
