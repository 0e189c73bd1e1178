// Package metrics держит Prometheus-метрики прувера и верификатора.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pnl"

// Результаты для метки result; ошибки пишутся своим kind.
const (
	ResultAccepted = "accepted"
	ResultFailed   = "failed"
)

var (
	// ProveTotal: попытки доказательства по политике и результату.
	ProveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "runs_total",
			Help:      "Total number of proving runs by policy and result",
		},
		[]string{"policy", "result"},
	)

	ProveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "prover",
			Name:      "duration_seconds",
			Help:      "Duration of proving runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 0.05s ~ 25.6s
		},
		[]string{"policy"},
	)

	VerifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verifier",
			Name:      "checks_total",
			Help:      "Total number of receipt verifications by result",
		},
		[]string{"result"},
	)

	AnchorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "anchor",
			Name:      "submissions_total",
			Help:      "Total number of on-chain proof hash submissions by result",
		},
		[]string{"result"},
	)

	FeedClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "feed",
		Name:      "clients",
		Help:      "Number of connected receipt feed websocket clients",
	})
)

func init() {
	prometheus.MustRegister(ProveTotal, ProveDuration, VerifyTotal, AnchorTotal, FeedClients)
}

// ObserveProve records one proving run.
func ObserveProve(policy, result string, started time.Time) {
	ProveTotal.WithLabelValues(policy, result).Inc()
	ProveDuration.WithLabelValues(policy).Observe(time.Since(started).Seconds())
}
