// Package metrics defines and registers all custom Prometheus metrics for the
// identity API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register with the default registry at import time; the /metrics
// route exposes them via the echoprometheus handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Session metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts sign-up attempts.
// Label:
//   - result: "created", "conflict", or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of account registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts sign-in attempts.
// Label:
//   - result: "success", "rejected" (bad credentials / unknown account), or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenRefreshesTotal counts access-token refresh attempts.
// Label:
//   - result: "success", "rejected" (expired/invalid/superseded token), or "error"
var TokenRefreshesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of access-token refresh attempts, by result.",
	},
	[]string{"result"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// TokenVerificationsTotal counts access-token verifications at the gate.
// Label:
//   - verdict: "valid", "expired", or "invalid"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer token verifications, by verdict.",
	},
	[]string{"verdict"},
)

// ── Cache metrics ─────────────────────────────────────────────────────────────

// ProfileCacheTotal counts safe-projection cache lookups.
// Label:
//   - result: "hit" or "miss"
var ProfileCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_cache_total",
		Help:      "Total number of profile cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)
