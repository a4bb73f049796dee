package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PaymentIntentTotal counts payment intent creation attempts by gateway and purpose.
	PaymentIntentTotal *prometheus.CounterVec
	// PaymentWebhookTotal counts inbound payment webhook processing outcomes.
	PaymentWebhookTotal *prometheus.CounterVec
	// CheckoutTotal counts checkout attempts by outcome.
	CheckoutTotal *prometheus.CounterVec
	// FeeQuoteTotal counts fee quote computations by fee type.
	FeeQuoteTotal *prometheus.CounterVec
	// PostModerationTotal counts moderation decisions.
	PostModerationTotal *prometheus.CounterVec
	// NotificationsEmitted counts admin notifications fanned out from domain events.
	NotificationsEmitted prometheus.Counter
)

// MustRegisterDomainMetrics builds the domain collectors once and registers
// them on reg (the default registerer when nil). Services nil-check the
// package vars so code paths work without registration, as in tests.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
			return mustRegister(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      name,
				Help:      help,
			}, labels))
		}

		PaymentIntentTotal = counterVec("payment_intent_total",
			"Count of payment intent processing outcomes.",
			"gateway", "payment_type", "result")
		PaymentWebhookTotal = counterVec("payment_webhook_total",
			"Count of processed payment webhooks by outcome.",
			"gateway", "result")
		CheckoutTotal = counterVec("checkout_total",
			"Count of checkout attempts by outcome.",
			"result")
		FeeQuoteTotal = counterVec("fee_quote_total",
			"Count of fee quote computations.",
			"fee_type")
		PostModerationTotal = counterVec("post_moderation_total",
			"Count of community post moderation decisions.",
			"decision")
		NotificationsEmitted = mustRegister[prometheus.Counter](reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_emitted_total",
			Help:      "Number of admin notifications created from domain events.",
		}))
	})
}
