package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the bot.
type Metrics struct {
	Updates         *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
	Orders          *prometheus.CounterVec
	Payments        *prometheus.CounterVec
	WalletCredited  prometheus.Counter
	Errors          *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updates_total",
				Help:      "Telegram updates processed, by event type.",
			}, []string{"type"}),
			HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "handler_duration_seconds",
				Help:      "Time spent handling one update.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"type"}),
			Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_total",
				Help:      "Purchase attempts by outcome.",
			}, []string{"status"}),
			Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_total",
				Help:      "Wallet top-up payments by outcome.",
			}, []string{"status"}),
			WalletCredited: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wallet_credited_total",
				Help:      "Sum of wallet units credited from payments.",
			}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.Updates,
			metricsInstance.HandlerDuration,
			metricsInstance.Orders,
			metricsInstance.Payments,
			metricsInstance.WalletCredited,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
