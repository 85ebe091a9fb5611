// Package metrics exposes Prometheus collectors for account and circulation activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	// authOperations counts sign-up, sign-in and sign-out calls by outcome.
	authOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "periodicals_auth_operations_total",
		Help: "Total number of account session operations",
	}, []string{"action", "outcome"})

	signInLockouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "periodicals_sign_in_lockouts_total",
		Help: "Total number of sign-in lockouts started by the rate limiter",
	})

	borrowingsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "periodicals_borrowings_opened_total",
		Help: "Total number of borrowings created",
	})

	borrowingsReturned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "periodicals_borrowings_returned_total",
		Help: "Total number of borrowings closed by a return",
	})

	// overdueBorrowings is refreshed by every overdue scan.
	overdueBorrowings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "periodicals_overdue_borrowings",
		Help: "Open borrowings past their agreed return time at the last scan",
	})

	auditEventsPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "periodicals_audit_events_purged_total",
		Help: "Total number of audit events removed by retention cleanup",
	})
)

// RecordAuth records the outcome of an account session operation.
func RecordAuth(action string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	authOperations.WithLabelValues(action, outcome).Inc()
}

func RecordLockout() {
	signInLockouts.Inc()
}

func RecordBorrow() {
	borrowingsOpened.Inc()
}

func RecordReturn() {
	borrowingsReturned.Inc()
}

// SetOverdue publishes the number of overdue borrowings found by a scan.
func SetOverdue(n int) {
	overdueBorrowings.Set(float64(n))
}

func AddAuditEventsPurged(n int64) {
	auditEventsPurged.Add(float64(n))
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
