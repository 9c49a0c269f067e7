package profitability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CalculationsTotal tracks completed detailed analyses.
	CalculationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_profitability_calculations_total",
		Help: "Total number of detailed profitability analyses produced",
	})

	// ErrorsTotal tracks analyses rejected for malformed input.
	ErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_profitability_errors_total",
		Help: "Total number of profitability calculation errors",
	})

	// DurationSeconds tracks analysis latency.
	DurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolarb_profitability_duration_seconds",
		Help:    "Duration of detailed profitability analyses",
		Buckets: prometheus.DefBuckets,
	})
)
