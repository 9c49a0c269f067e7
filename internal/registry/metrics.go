package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PoolsTracked tracks the number of monitored pools.
	PoolsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolarb_registry_pools_tracked",
		Help: "Number of liquidity pools currently under observation",
	})

	// RefreshesTotal tracks completed refresh batches.
	RefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_registry_refreshes_total",
		Help: "Total number of completed pool refresh batches",
	})

	// RefreshErrorsTotal tracks per-pool refresh failures.
	RefreshErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_registry_refresh_errors_total",
		Help: "Total number of per-pool refresh failures (retried next cycle)",
	})
)
