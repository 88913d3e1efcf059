// Package metrics exposes Prometheus collectors for dose and reminder
// activity. The watch command serves them over HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/julianstephens/pills/internal/constants"
)

// Registry holds every pills collector. It is separate from the default
// registry so tests and the watch endpoint see only these series.
var Registry = prometheus.NewRegistry()

var (
	DoseToggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Name:      "dose_toggles_total",
		Help:      "Dose toggle attempts by period and outcome.",
	}, []string{"period", "outcome"})

	Reschedules = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Name:      "reschedules_total",
		Help:      "Full reminder reschedules.",
	})

	RemindersScheduled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Name:      "reminders_scheduled_total",
		Help:      "Reminders written to the pending sink.",
	})

	RemindersDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Name:      "reminders_delivered_total",
		Help:      "Reminders sent through a notifier backend.",
	}, []string{"period", "backend"})

	RemindersSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Name:      "reminders_skipped_total",
		Help:      "Due reminders that were not sent, by reason.",
	}, []string{"reason"})

	DeliveryFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.AppName,
		Name:      "reminder_delivery_failures_total",
		Help:      "Failed reminder deliveries by backend.",
	}, []string{"backend"})

	PendingReminders = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: constants.AppName,
		Name:      "pending_reminders",
		Help:      "Reminders currently pending after the last reschedule.",
	})

	CurrentStreak = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: constants.AppName,
		Name:      "current_streak_days",
		Help:      "Consecutive days with both doses taken.",
	})

	HistoryLocked = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: constants.AppName,
		Name:      "history_locked",
		Help:      "1 when edits to past days are locked.",
	})
)

// Skip reasons for RemindersSkipped.
const (
	ReasonTaken   = "taken"
	ReasonExpired = "expired"
)

func init() {
	Registry.MustRegister(
		DoseToggles,
		Reschedules,
		RemindersScheduled,
		RemindersDelivered,
		RemindersSkipped,
		DeliveryFailures,
		PendingReminders,
		CurrentStreak,
		HistoryLocked,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// SetLocked records the lock state as a 0/1 gauge.
func SetLocked(locked bool) {
	if locked {
		HistoryLocked.Set(1)
	} else {
		HistoryLocked.Set(0)
	}
}
