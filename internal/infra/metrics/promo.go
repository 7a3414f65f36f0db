package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(promoRequestsTotal, promoPoolSize, promoPurgedTotal) }

var promoRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "promo_requests_total",
		Help: "Promo code requests, labeled by outcome.",
	},
	[]string{"outcome"}, // 'issued', 'rate_limited', 'pool_exhausted', 'error'
)

var promoPoolSize = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "promo_pool_size",
		Help: "Current number of distributable codes in the pool.",
	},
)

var promoPurgedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "promo_purged_total",
		Help: "Total pool entries removed by expiry sweeps.",
	},
)

func IncPromoRequest(outcome string) {
	promoRequestsTotal.WithLabelValues(norm(outcome)).Inc()
}

func SetPromoPoolSize(n int) { promoPoolSize.Set(float64(n)) }

func AddPromoPurged(n int) {
	if n > 0 {
		promoPurgedTotal.Add(float64(n))
	}
}
