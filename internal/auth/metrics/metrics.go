// Package metrics holds the Prometheus counters of the auth service. They are
// registered on the default registry and served by Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "smartplant"
	subsystem = "auth"
)

// Outcome label values shared by the counters below.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeLimited = "rate_limited"
	OutcomeError   = "error"
	OutcomeDropped = "dropped"
)

var (
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "logins_total",
		Help:      "Password login attempts by outcome.",
	}, []string{"outcome"})

	MFAVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "mfa_verifications_total",
		Help:      "One-time code verifications by outcome.",
	}, []string{"outcome"})

	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "refreshes_total",
		Help:      "Refresh token exchanges by outcome.",
	}, []string{"outcome"})

	GateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "gate_rejections_total",
		Help:      "Requests refused by the access token gate, by reason.",
	}, []string{"reason"})

	CodesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "codes_issued_total",
		Help:      "One-time codes created.",
	})

	MailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "mail_deliveries_total",
		Help:      "Outbox delivery attempts by outcome.",
	}, []string{"outcome"})

	HousekeepingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "housekeeping_runs_total",
		Help:      "Cleanup passes by outcome.",
	}, []string{"outcome"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
