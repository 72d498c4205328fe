// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/runtime-config/runtime-config/internal/apperr"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	// SettingMutations counts settings store writes by operation and result.
	SettingMutations = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "setting_mutations_total",
			Help: "Number of setting create, edit and delete operations.",
		},
		[]string{"operation", "result"},
	)

	// HistoryEntries counts appended audit rows by kind.
	HistoryEntries = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "setting_history_entries_total",
			Help: "Number of setting history entries written.",
		},
		[]string{"kind"},
	)

	// TokenOperations counts token service calls by operation and result.
	TokenOperations = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "token_operations_total",
			Help: "Number of token issue, refresh, verify and revoke operations.",
		},
		[]string{"operation", "result"},
	)

	httpRequestDuration = promauto.NewHistogramVec( //nolint:gochecknoglobals
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Result maps an operation outcome to a result label.
// rejected reports whether err is an expected refusal rather than a failure.
func Result(err error, rejected func(error) bool) string {
	switch {
	case err == nil:
		return ResultOK
	case rejected != nil && rejected(err):
		return ResultRejected
	default:
		return ResultError
	}
}

// Instrument records request latency per matched route.
func Instrument() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok { //nolint:errorlint
				status = e.Code
			} else {
				status = apperr.HTTPStatus(err)
			}
		}

		httpRequestDuration.
			WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler exposes the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
