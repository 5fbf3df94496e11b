// internal/metrics/metrics.go
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SubscriptionMetrics records engine outcomes.
type SubscriptionMetrics interface {
	IncQuote(kind string)
	IncCheckoutConfirmed(periodDays int, pattern string)
	ObserveCheckoutAmount(amount float64, currency string)
	IncDeliveryTransition(status string)
	IncSkipRejected(reason string)
	IncRefundCredited(currency string)
}

type subscriptionMetrics struct {
	quotes        *prometheus.CounterVec
	confirmed     *prometheus.CounterVec
	amount        *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
	skipsRejected *prometheus.CounterVec
	refunds       *prometheus.CounterVec
}

func NewSubscriptionMetrics(registry *prometheus.Registry) SubscriptionMetrics {
	factory := promauto.With(registry)
	return &subscriptionMetrics{
		quotes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_quotes_total",
				Help: "Quotes computed, by kind (subscription, buy_once)",
			},
			[]string{"kind"},
		),
		confirmed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_confirmed_total",
				Help: "Subscriptions created at checkout confirmation",
			},
			[]string{"period_days", "pattern"},
		),
		amount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "checkout_amount",
				Help:    "Checkout total price distribution",
				Buckets: prometheus.ExponentialBuckets(10, 4, 7),
			},
			[]string{"currency"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "delivery_transitions_total",
				Help: "Delivery entries moved out of PENDING, by target status",
			},
			[]string{"status"},
		),
		skipsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "delivery_skips_rejected_total",
				Help: "Skip requests rejected, by reason",
			},
			[]string{"reason"},
		),
		refunds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_refunds_credited_total",
				Help: "Skip refunds credited to wallets",
			},
			[]string{"currency"},
		),
	}
}

func (m *subscriptionMetrics) IncQuote(kind string) {
	m.quotes.WithLabelValues(kind).Inc()
}

func (m *subscriptionMetrics) IncCheckoutConfirmed(periodDays int, pattern string) {
	m.confirmed.WithLabelValues(strconv.Itoa(periodDays), pattern).Inc()
}

func (m *subscriptionMetrics) ObserveCheckoutAmount(amount float64, currency string) {
	m.amount.WithLabelValues(currency).Observe(amount)
}

func (m *subscriptionMetrics) IncDeliveryTransition(status string) {
	m.transitions.WithLabelValues(status).Inc()
}

func (m *subscriptionMetrics) IncSkipRejected(reason string) {
	m.skipsRejected.WithLabelValues(reason).Inc()
}

func (m *subscriptionMetrics) IncRefundCredited(currency string) {
	m.refunds.WithLabelValues(currency).Inc()
}

// Nop discards everything. Used by tests and tools.
type Nop struct{}

func (Nop) IncQuote(string)                       {}
func (Nop) IncCheckoutConfirmed(int, string)      {}
func (Nop) ObserveCheckoutAmount(float64, string) {}
func (Nop) IncDeliveryTransition(string)          {}
func (Nop) IncSkipRejected(string)                {}
func (Nop) IncRefundCredited(string)              {}
