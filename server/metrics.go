package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics for the integration surface. Counters only; the
// interesting latency lives inside the provider, not here.
var (
	loginStarts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deskd_login_starts_total",
		Help: "Authorization redirects issued",
	})

	callbackResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskd_callback_results_total",
		Help: "OAuth callback outcomes by result",
	}, []string{"result"})

	webhookVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskd_webhook_verifications_total",
		Help: "Webhook signature verification outcomes",
	}, []string{"result"})
)

// RegisterMetrics registers the gateway metrics on the given registry
// (or the default if nil). Re-registration is tolerated so tests can
// build multiple apps.
func RegisterMetrics(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{loginStarts, callbackResults, webhookVerifications} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
