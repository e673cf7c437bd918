package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the notification dispatcher.
type Metrics struct {
	Created      prometheus.Counter
	Deduplicated prometheus.Counter
	GroupSkipped prometheus.Counter
}

// New creates and registers all notification metrics.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_portal_notifications_created_total",
			Help: "Total number of notifications created",
		}),
		Deduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_portal_notifications_deduplicated_total",
			Help: "Total number of notifications suppressed by unread-message dedup",
		}),
		GroupSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "kyc_portal_notification_group_skips_total",
			Help: "Total number of group fan-outs skipped because the group was missing or empty",
		}),
	}
}
