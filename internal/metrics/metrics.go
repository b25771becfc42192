package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	cartOperationsTotal    *prometheus.CounterVec
	paymentAttemptsTotal   *prometheus.CounterVec
	paymentDurationSeconds prometheus.Histogram
)

// Init registers the storefront metrics. Safe to call more than once.
func Init() {
	once.Do(func() {
		cartOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "decant_store",
			Subsystem: "cart",
			Name:      "operations_total",
			Help:      "Total cart mutations by operation",
		}, []string{"operation"})

		paymentAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "decant_store",
			Subsystem: "checkout",
			Name:      "payment_attempts_total",
			Help:      "Total payment submissions by outcome",
		}, []string{"outcome"})

		paymentDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "decant_store",
			Subsystem: "checkout",
			Name:      "payment_duration_seconds",
			Help:      "Duration of gateway payment submissions",
			Buckets:   prometheus.DefBuckets,
		})
	})
}

func CartOperation(operation string) {
	if cartOperationsTotal == nil {
		return
	}
	cartOperationsTotal.WithLabelValues(operation).Inc()
}

func PaymentAttempt(outcome string, took time.Duration) {
	if paymentAttemptsTotal == nil {
		return
	}
	paymentAttemptsTotal.WithLabelValues(outcome).Inc()
	paymentDurationSeconds.Observe(took.Seconds())
}
