package detector

import (
	"fmt"

	"github.com/nmoreno/poolarb/pkg/types"
)

// assessRisk scores the five independent risk components for a priced
// route. Every component is clamped to [0,1]; the overall label is
// monotonic in the component mean.
func assessRisk(route []RouteHop, pools []*types.Pool, profit Profitability) Risk {
	amountIn := route[0].AmountIn

	// Thin liquidity relative to trade size
	depth := minQuoteDepth(route, pools)
	liquidity := clamp01(amountIn * 40 / (depth + amountIn*40))

	// Cumulative price impact along the route
	totalImpact := 0.0
	for _, hop := range route {
		totalImpact += hop.PriceImpact
	}
	slippage := clamp01(totalImpact * 20)

	// Larger visible profit attracts adversarial reordering
	reordering := clamp01(profit.NetProfit / 500)

	// Each extra hop widens the window in which prices can move away
	temporalDecay := clamp01(0.15 + 0.1*float64(len(route)-1))

	// Busy pools have more searchers racing for the same edge
	maxVolume := 0.0
	for _, p := range pools {
		if p.Volume24h > maxVolume {
			maxVolume = p.Volume24h
		}
	}
	competition := clamp01(maxVolume / (maxVolume + 5_000_000))

	r := Risk{
		Liquidity:     liquidity,
		Slippage:      slippage,
		Reordering:    reordering,
		TemporalDecay: temporalDecay,
		Competition:   competition,
	}
	r.Overall = types.RiskLevelFromScore(r.Mean())
	r.Factors = riskFactors(r, len(route))

	return r
}

func riskFactors(r Risk, hops int) []string {
	var factors []string

	if r.Liquidity > 0.5 {
		factors = append(factors, "trade size is large relative to pool depth")
	}
	if r.Slippage > 0.5 {
		factors = append(factors, "route accumulates significant price impact")
	}
	if r.Reordering > 0.5 {
		factors = append(factors, "profit large enough to attract front-runners")
	}
	if hops > 2 {
		factors = append(factors, fmt.Sprintf("%d-hop route widens the exposure window", hops))
	}
	if r.Competition > 0.5 {
		factors = append(factors, "high pool volume implies competing searchers")
	}

	if len(factors) == 0 {
		factors = append(factors, "no elevated risk components")
	}
	return factors
}
