package breaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TrippedTotal tracks breaker trips by reason.
	TrippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolarb_breaker_tripped_total",
			Help: "Total number of loss circuit breaker trips",
		},
		[]string{"reason"},
	)

	// StateGauge is 0 when the breaker is closed, 1 when open.
	StateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolarb_breaker_open",
		Help: "Whether the loss circuit breaker is open",
	})
)
