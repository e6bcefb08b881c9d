package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Webhook
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagseguro_notifications_total",
			Help: "PagSeguro notifications by outcome",
		},
		[]string{"outcome"}, // confirmed|unconfirmed|duplicate|error
	)
	GatewayFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagseguro_fetch_duration_seconds",
			Help:    "Latency of PagSeguro transaction lookups",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// Mail
	EmailsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_sent_total",
			Help: "Access emails sent",
		},
	)
	EmailsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "emails_failed_total",
			Help: "Access emails that failed to send",
		},
	)
)

// /metrics endpoint handler
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(GatewayFetchDuration)
	prometheus.MustRegister(EmailsSent)
	prometheus.MustRegister(EmailsFailed)
}
