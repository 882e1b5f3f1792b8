package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toonlord_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toonlord_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	UnlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toonlord_manga_unlocks_total",
			Help: "Total number of manga unlock attempts",
		},
		[]string{"result"},
	)

	CoinsSpentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toonlord_coins_spent_total",
			Help: "Total toonCoins debited through unlocks",
		},
	)

	CoinPurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toonlord_coin_purchases_total",
			Help: "Total number of coin purchase confirmations",
		},
		[]string{"result"},
	)

	CoinsGrantedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toonlord_coins_granted_total",
			Help: "Total toonCoins credited from purchases and rewards",
		},
	)

	PayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toonlord_creator_payouts_total",
			Help: "Total number of creator payout requests",
		},
		[]string{"status"},
	)

	RefundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "toonlord_refunds_total",
			Help: "Total number of reversed transactions",
		},
	)

	NotificationsQueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toonlord_notifications_queued_total",
			Help: "Total number of notifications pushed to the delivery queue",
		},
		[]string{"kind"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "toonlord_notification_queue_length",
			Help: "Current length of the notification delivery queue",
		},
	)

	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toonlord_payment_provider_requests_total",
			Help: "Total number of calls to the external checkout provider",
		},
		[]string{"op", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordUnlock(result string, coins int64) {
	UnlocksTotal.WithLabelValues(result).Inc()
	if result == "completed" && coins > 0 {
		CoinsSpentTotal.Add(float64(coins))
	}
}

func RecordPurchase(result string, coins int64) {
	CoinPurchasesTotal.WithLabelValues(result).Inc()
	if result == "completed" && coins > 0 {
		CoinsGrantedTotal.Add(float64(coins))
	}
}

func RecordPayout(status string) {
	PayoutsTotal.WithLabelValues(status).Inc()
}

func RecordRefund() {
	RefundsTotal.Inc()
}

func RecordNotification(kind string) {
	NotificationsQueuedTotal.WithLabelValues(kind).Inc()
}

func RecordProviderRequest(op, status string) {
	ProviderRequestsTotal.WithLabelValues(op, status).Inc()
}
