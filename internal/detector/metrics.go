package detector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DetectedTotal tracks detected opportunities by cycle type.
	DetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolarb_opportunities_detected_total",
			Help: "Total number of arbitrage opportunities detected",
		},
		[]string{"type"},
	)

	// RejectedTotal tracks rejected candidates by reason.
	RejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolarb_opportunities_rejected_total",
			Help: "Total number of candidate opportunities rejected",
		},
		[]string{"reason"},
	)

	// ExpiredTotal tracks opportunities evicted by the staleness window.
	ExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_opportunities_expired_total",
		Help: "Total number of opportunities evicted as stale",
	})

	// NetProfitUSD tracks net profit of accepted opportunities.
	NetProfitUSD = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolarb_opportunity_net_profit_usd",
		Help:    "Net profit of accepted opportunities in USD",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	// ScanDurationSeconds tracks scan cycle latency.
	ScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolarb_scan_duration_seconds",
		Help:    "Duration of opportunity scan cycles",
		Buckets: prometheus.DefBuckets,
	})
)
