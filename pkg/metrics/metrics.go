package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latency of HTTP handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders created through checkout",
	})

	OrderStatusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Order status transitions by target status",
	}, []string{"status"})

	PaymentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Payment outcomes by gateway and status",
	}, []string{"gateway", "status"})

	WebhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook deliveries by gateway and result",
	}, []string{"gateway", "result"})

	// 0 closed, 1 half-open, 2 open
	GatewayBreakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gateway_breaker_state",
		Help: "Circuit breaker state per payment gateway",
	}, []string{"gateway"})

	LiveFeedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dashboard_live_clients",
		Help: "Connected dashboard websocket clients",
	})
)

func Init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		OrdersPlaced,
		OrderStatusChanges,
		PaymentsTotal,
		WebhookEvents,
		GatewayBreakerState,
		LiveFeedClients,
	)
}
