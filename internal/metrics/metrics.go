// Package metrics provides Prometheus metrics for the gatekeeper.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the metrics namespace for all gatekeeper metrics.
	Namespace = "gatekeeper"

	// Subsystem names for different components.
	SubsystemHTTP      = "http"
	SubsystemAuth      = "auth"
	SubsystemRateLimit = "ratelimit"
	SubsystemSession   = "session"
)

var (
	// HTTPRequestsTotal counts total HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemHTTP,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestDuration measures HTTP request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemHTTP,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status_code"},
	)

	// AuthAttemptsTotal counts login attempts by outcome.
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAuth,
			Name:      "attempts_total",
			Help:      "Total number of login attempts",
		},
		[]string{"result"},
	)

	// AuthValidationsTotal counts token validations by outcome.
	AuthValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemAuth,
			Name:      "validations_total",
			Help:      "Total number of token validations",
		},
		[]string{"result"},
	)

	// RateLimitRejectionsTotal counts requests rejected by the rate limiter.
	RateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemRateLimit,
			Name:      "rejections_total",
			Help:      "Total number of rate limited requests",
		},
		[]string{"reason"},
	)

	// SessionStoreErrorsTotal counts session store failures by operation.
	SessionStoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemSession,
			Name:      "store_errors_total",
			Help:      "Total number of session store errors",
		},
		[]string{"operation"},
	)
)

// Auth attempt and validation result label values.
const (
	ResultSuccess     = "success"
	ResultInvalid     = "invalid"
	ResultRevoked     = "revoked"
	ResultStoreError  = "store_error"
	ResultIssuerError = "issuer_error"
)
