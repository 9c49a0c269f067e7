package manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AutoExecutionsTotal tracks opportunities executed automatically.
	AutoExecutionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_auto_executions_total",
		Help: "Total number of automatically executed opportunities",
	})

	// AutoExecErrorsTotal tracks failed automatic executions.
	AutoExecErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_auto_execution_errors_total",
		Help: "Total number of automatic execution failures",
	})
)
