// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActivitySignups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_signups_total",
			Help: "Total number of successful activity signups",
		},
		[]string{"activity"},
	)

	ActivityUnregistrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_unregistrations_total",
			Help: "Total number of successful activity unregistrations",
		},
		[]string{"activity"},
	)

	ActivityRequestsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_requests_failed_total",
			Help: "Total number of rejected or failed requests",
		},
		[]string{"operation", "error_code"},
	)

	ActivityParticipants = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "activity_participants",
			Help: "Current number of participants per activity",
		},
		[]string{"activity"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_notifications_failed_total",
			Help: "Total number of roster notifications that could not be delivered",
		},
		[]string{"notifier"},
	)
)

// SetParticipants records the current roster size of an activity.
func SetParticipants(activity string, n int) {
	ActivityParticipants.WithLabelValues(activity).Set(float64(n))
}
