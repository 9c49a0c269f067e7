package detector

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/nmoreno/poolarb/pkg/types"
)

// OpportunityType classifies the arbitrage cycle shape.
type OpportunityType string

const (
	TypeDirect     OpportunityType = "direct"
	TypeTriangular OpportunityType = "triangular"
	TypeMultiHop   OpportunityType = "multi-hop"
)

// RouteHop is one swap in the arbitrage cycle.
type RouteHop struct {
	Pool        common.Address `json:"pool"`
	TokenIn     types.TokenInfo `json:"token_in"`
	TokenOut    types.TokenInfo `json:"token_out"`
	AmountIn    float64         `json:"amount_in"`
	AmountOut   float64         `json:"amount_out"`
	PriceImpact float64         `json:"price_impact"`
}

// ExecutionStep is the unit handed to the planner. DependsOn lists the
// indexes of steps that must complete before this one starts.
type ExecutionStep struct {
	Index        int            `json:"index"`
	Description  string         `json:"description"`
	Pool         common.Address `json:"pool"`
	AmountIn     float64        `json:"amount_in"`
	MinAmountOut float64        `json:"min_amount_out"`
	DependsOn    []int          `json:"depends_on"`
}

// Profitability is the opportunity's financial snapshot.
// Invariant: NetProfit = GrossProfit - GasCosts - PriorityFees.
type Profitability struct {
	GrossProfit         float64 `json:"gross_profit"`
	GasCosts            float64 `json:"gas_costs"`
	PriorityFees        float64 `json:"priority_fees"`
	NetProfit           float64 `json:"net_profit"`
	Margin              float64 `json:"margin"`
	ROI                 float64 `json:"roi"`
	BreakevenAmount     float64 `json:"breakeven_amount"`
	MaxProfitableAmount float64 `json:"max_profitable_amount"`
	EstimatedCostUSD    float64 `json:"estimated_cost_usd"`
}

// Risk holds the five independent risk components, each bounded to [0,1],
// plus the derived overall label and narrative factors.
type Risk struct {
	Liquidity     float64         `json:"liquidity"`
	Slippage      float64         `json:"slippage"`
	Reordering    float64         `json:"reordering"`
	TemporalDecay float64         `json:"temporal_decay"`
	Competition   float64         `json:"competition"`
	Overall       types.RiskLevel `json:"overall"`
	Factors       []string        `json:"factors"`
}

// Mean returns the mean of the five risk components.
func (r Risk) Mean() float64 {
	return (r.Liquidity + r.Slippage + r.Reordering + r.TemporalDecay + r.Competition) / 5
}

// Opportunity is a candidate profitable cycle across one or more pools.
type Opportunity struct {
	ID               string          `json:"id"`
	Type             OpportunityType `json:"type"`
	InputToken       types.TokenInfo `json:"input_token"`
	Pools            []common.Address `json:"pools"`
	Route            []RouteHop       `json:"route"`
	Profit           Profitability    `json:"profit"`
	Risk             Risk             `json:"risk"`
	Steps            []ExecutionStep  `json:"steps"`
	ProtectiveTiming string           `json:"protective_timing"`
	DetectedAt       time.Time        `json:"detected_at"`
	Confidence       float64          `json:"confidence"`
}

// InputAmount returns the cycle's starting amount.
func (o *Opportunity) InputAmount() float64 {
	if len(o.Route) == 0 {
		return 0
	}
	return o.Route[0].AmountIn
}

// References reports whether the opportunity routes through the pool.
func (o *Opportunity) References(pool common.Address) bool {
	for _, p := range o.Pools {
		if p == pool {
			return true
		}
	}
	return false
}

// Age returns time elapsed since detection.
func (o *Opportunity) Age() time.Duration {
	return time.Since(o.DetectedAt)
}

// RiskAdjustedReturn is the ranking key for best-for-amount queries:
// net profit discounted by mean risk and detection confidence.
func (o *Opportunity) RiskAdjustedReturn() float64 {
	return o.Profit.NetProfit * (1 - o.Risk.Mean()) * o.Confidence
}

// String returns a short human-readable summary.
func (o *Opportunity) String() string {
	return fmt.Sprintf("Opportunity[%s] type=%s hops=%d in=%.2f net=$%.2f risk=%.2f conf=%.2f",
		o.ID[:8], o.Type, len(o.Route), o.InputAmount(), o.Profit.NetProfit, o.Risk.Mean(), o.Confidence)
}

// newOpportunity assembles an opportunity from a priced route. The caller
// has already verified the route has positive gross profit potential.
func newOpportunity(kind OpportunityType, inputToken types.TokenInfo, route []RouteHop, pools []*types.Pool) *Opportunity {
	addrs := make([]common.Address, len(pools))
	for i, p := range pools {
		addrs[i] = p.Address
	}

	profit := deriveProfitability(route, pools)
	risk := assessRisk(route, pools, profit)

	steps := make([]ExecutionStep, len(route))
	for i, hop := range route {
		var deps []int
		if i > 0 {
			deps = []int{i - 1}
		}
		steps[i] = ExecutionStep{
			Index:        i,
			Description:  fmt.Sprintf("swap %s -> %s on %s", hop.TokenIn.Symbol, hop.TokenOut.Symbol, hop.Pool.Hex()[:10]),
			Pool:         hop.Pool,
			AmountIn:     hop.AmountIn,
			MinAmountOut: hop.AmountOut * (1 - hop.PriceImpact),
			DependsOn:    deps,
		}
	}

	timing := "randomized-delay"
	if profit.NetProfit > 100 {
		timing = "randomized-delay+private-bundle"
	}

	return &Opportunity{
		ID:               uuid.New().String(),
		Type:             kind,
		InputToken:       inputToken,
		Pools:            addrs,
		Route:            route,
		Profit:           profit,
		Risk:             risk,
		Steps:            steps,
		ProtectiveTiming: timing,
		DetectedAt:       time.Now(),
		Confidence:       deriveConfidence(route, risk),
	}
}

// Per-hop execution cost assumptions, in USD. The split between base gas
// and priority fee mirrors how the cost breakdown is reported downstream.
const (
	gasCostPerHopUSD     = 0.85
	priorityFeePerHopUSD = 0.15
)

func deriveProfitability(route []RouteHop, pools []*types.Pool) Profitability {
	hops := float64(len(route))
	amountIn := route[0].AmountIn
	amountOut := route[len(route)-1].AmountOut

	gross := amountOut - amountIn
	gas := gasCostPerHopUSD * hops
	priority := priorityFeePerHopUSD * hops
	net := gross - gas - priority

	margin := 0.0
	roi := 0.0
	if amountIn > 0 {
		margin = gross / amountIn
		roi = net / amountIn
	}

	// Fixed costs amortize linearly in size while the edge is roughly
	// proportional, so breakeven is fixed-cost over per-unit edge.
	breakeven := 0.0
	if margin > 0 {
		breakeven = (gas + priority) / margin
	}

	// The per-unit edge decays as the trade consumes depth; cap the
	// profitable size at the point where impact eats the remaining edge.
	minDepth := minQuoteDepth(route, pools)
	maxProfitable := amountIn
	if margin > 0 {
		maxProfitable = minDepth * margin * 25
		if maxProfitable < breakeven {
			maxProfitable = breakeven
		}
	}

	return Profitability{
		GrossProfit:         gross,
		GasCosts:            gas,
		PriorityFees:        priority,
		NetProfit:           net,
		Margin:              margin,
		ROI:                 roi,
		BreakevenAmount:     breakeven,
		MaxProfitableAmount: maxProfitable,
		EstimatedCostUSD:    gas + priority,
	}
}

func minQuoteDepth(route []RouteHop, pools []*types.Pool) float64 {
	min := 0.0
	for i, hop := range route {
		depth := pools[i].DepthFor(hop.TokenIn.Address)
		if i == 0 || depth < min {
			min = depth
		}
	}
	return min
}

func deriveConfidence(route []RouteHop, risk Risk) float64 {
	conf := 0.95 - 0.05*float64(len(route)-1) - 0.3*risk.Slippage
	return clamp01(conf)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
