// Package metrics defines and registers the custom Prometheus metrics of the
// VartaLang API. It is the single source of truth for metric names, labels,
// and help strings. HTTP request metrics come from the echoprometheus
// middleware; everything here is domain level.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vartalang"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthEventsTotal counts authentication outcomes.
// Labels:
//   - event: "register", "login", "refresh" or "logout"
//   - result: "success" or a short failure reason (e.g. "invalid_credentials")
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of authentication attempts, by event and result.",
	},
	[]string{"event", "result"},
)

// RateLimitedTotal counts requests rejected by a rate limiter.
// Label:
//   - scope: "api" or "auth"
var RateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by rate limiting.",
	},
	[]string{"scope"},
)

// ── Course metrics ────────────────────────────────────────────────────────────

// CoursesCreatedTotal counts newly created courses.
// Label:
//   - language: the course language (e.g. "Hindi")
var CoursesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "courses_created_total",
		Help:      "Total number of courses created, by language.",
	},
	[]string{"language"},
)

// EnrollmentsTotal counts enrollment attempts.
// Label:
//   - result: "success", "already_enrolled", "not_available" or "error"
var EnrollmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "enrollments_total",
		Help:      "Total number of enrollment attempts, by result.",
	},
	[]string{"result"},
)
