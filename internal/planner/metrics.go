package planner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlansCreatedTotal tracks created plans by strategy.
	PlansCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolarb_plans_created_total",
			Help: "Total number of execution plans created",
		},
		[]string{"strategy"},
	)

	// PlansCancelledTotal tracks cancelled plans.
	PlansCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "poolarb_plans_cancelled_total",
		Help: "Total number of execution plans cancelled",
	})

	// ActivePlans tracks the size of the active-plan table.
	ActivePlans = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolarb_plans_active",
		Help: "Number of plans currently held by the planner",
	})

	// ExecutionsTotal tracks execution outcomes by result.
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poolarb_executions_total",
			Help: "Total number of plan executions by outcome",
		},
		[]string{"outcome"},
	)

	// ExecutionsInFlight tracks concurrently executing plans.
	ExecutionsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poolarb_executions_in_flight",
		Help: "Number of plans currently executing",
	})

	// RealizedProfitUSD tracks realized profit of completed executions.
	RealizedProfitUSD = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolarb_realized_profit_usd",
		Help:    "Realized profit of completed executions in USD",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
)
