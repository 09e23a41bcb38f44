package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campark_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campark_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SessionsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campark_sessions_started_total",
			Help: "Total number of parking sessions started",
		},
		[]string{"detection_method"},
	)

	SessionsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campark_sessions_completed_total",
			Help: "Total number of parking sessions completed",
		},
		[]string{"payment_status"},
	)

	SessionFeeCentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campark_session_fee_cents_total",
			Help: "Sum of fees charged for completed sessions, in cents",
		},
	)

	WalletTopUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "campark_wallet_topups_total",
			Help: "Total number of wallet top-ups",
		},
	)

	WalletChargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campark_wallet_charges_total",
			Help: "Total number of wallet charges",
		},
		[]string{"result"},
	)

	SpotStatusUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campark_spot_status_updates_total",
			Help: "Total number of spot status transitions",
		},
		[]string{"status"},
	)

	LiveClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campark_live_clients",
			Help: "Number of connected live-map websocket clients",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campark_notifications_total",
			Help: "Total number of notification deliveries",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "campark_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSessionStarted(detectionMethod string) {
	SessionsStartedTotal.WithLabelValues(detectionMethod).Inc()
}

func RecordSessionCompleted(paymentStatus string, feeCents int64) {
	SessionsCompletedTotal.WithLabelValues(paymentStatus).Inc()
	SessionFeeCentsTotal.Add(float64(feeCents))
}

func RecordWalletTopUp() {
	WalletTopUpsTotal.Inc()
}

func RecordWalletCharge(result string) {
	WalletChargesTotal.WithLabelValues(result).Inc()
}

func RecordSpotStatusUpdate(status string) {
	SpotStatusUpdatesTotal.WithLabelValues(status).Inc()
}

func RecordNotification(notificationType, status string) {
	NotificationsTotal.WithLabelValues(notificationType, status).Inc()
}
