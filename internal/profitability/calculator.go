// Package profitability turns a detected opportunity and a candidate input
// amount into a multi-scenario financial analysis. Analyses are derived on
// demand and never cached; the only non-determinism is the market model.
package profitability

import (
	"math"
	"time"

	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

// MarketConditions optionally overrides the model's view of the market for
// a single analysis.
type MarketConditions struct {
	Volatility         float64 `json:"volatility"`
	GasPriceMultiplier float64 `json:"gas_price_multiplier"`
	CongestionLevel    float64 `json:"congestion_level"`
}

// Scenario is one branch of the outcome distribution.
type Scenario struct {
	Name           string        `json:"name"`
	Probability    float64       `json:"probability"`
	ExpectedProfit float64       `json:"expected_profit"`
	WorstCase      float64       `json:"worst_case"`
	BestCase       float64       `json:"best_case"`
	ExecutionTime  time.Duration `json:"execution_time"`
	ComputeUnits   uint64        `json:"compute_units"`
}

// Ratios are risk-adjusted figures derived from the scenario distribution.
type Ratios struct {
	Sharpe              float64 `json:"sharpe"`
	Sortino             float64 `json:"sortino"`
	MaxDrawdown         float64 `json:"max_drawdown"`
	ValueAtRisk95       float64 `json:"value_at_risk_95"`
	ConditionalVaR95    float64 `json:"conditional_var_95"`
	ProbabilityOfProfit float64 `json:"probability_of_profit"`
}

// CostBreakdown itemizes the gap between gross and net profit. Total must
// equal grossProfit - netProfit of the base analysis.
type CostBreakdown struct {
	GasCosts     float64 `json:"gas_costs"`
	PriorityFees float64 `json:"priority_fees"`
}

// Total returns the sum of all cost parts.
func (c CostBreakdown) Total() float64 {
	return c.GasCosts + c.PriorityFees
}

// MarketImpact scores the execution environment. All scores are in [0,1].
type MarketImpact struct {
	LiquidityDepthScore float64 `json:"liquidity_depth_score"`
	StabilityScore      float64 `json:"stability_score"`
	CompetitionPressure float64 `json:"competition_pressure"`
	TemporalDecay       float64 `json:"temporal_decay"`
}

// Recommendation is one ranked action suggestion.
type Recommendation struct {
	Rank      int    `json:"rank"`
	Action    string `json:"action"`
	Rationale string `json:"rationale"`
}

// SensitivityPoint is one sample of a net-profit sensitivity curve.
type SensitivityPoint struct {
	FactorMultiplier float64 `json:"factor_multiplier"`
	NetProfit        float64 `json:"net_profit"`
}

// Analysis is the detailed profitability report for one
// (opportunity, input amount, market conditions) triple.
type Analysis struct {
	OpportunityID   string                        `json:"opportunity_id"`
	InputAmount     float64                       `json:"input_amount"`
	Base            detector.Profitability        `json:"base"`
	Scenarios       []Scenario                    `json:"scenarios"`
	Ratios          Ratios                        `json:"ratios"`
	Costs           CostBreakdown                 `json:"costs"`
	Impact          MarketImpact                  `json:"impact"`
	Recommendations []Recommendation              `json:"recommendations"`
	Sensitivity     map[string][]SensitivityPoint `json:"sensitivity"`
	GeneratedAt     time.Time                     `json:"generated_at"`
}

// Calculator produces detailed analyses.
type Calculator struct {
	model  MarketModel
	logger *zap.Logger
}

// New creates a calculator over the given market model.
func New(model MarketModel, logger *zap.Logger) *Calculator {
	return &Calculator{model: model, logger: logger}
}

// CalculateDetailed analyzes an opportunity at the given input amount.
// conditions may be nil, in which case the market model's defaults apply.
// Returns a *types.CalculationError when the opportunity has no route.
func (c *Calculator) CalculateDetailed(opp *detector.Opportunity, inputAmount float64, conditions *MarketConditions) (*Analysis, error) {
	start := time.Now()

	if len(opp.Route) == 0 || len(opp.Steps) == 0 {
		ErrorsTotal.Inc()
		return nil, &types.CalculationError{
			OpportunityID: opp.ID,
			Reason:        "opportunity has no route steps",
		}
	}
	if inputAmount <= 0 {
		ErrorsTotal.Inc()
		return nil, &types.CalculationError{
			OpportunityID: opp.ID,
			Reason:        "input amount must be positive",
		}
	}

	volatility := c.model.Volatility()
	gasMult := 1.0
	congestion := 0.0
	if conditions != nil {
		if conditions.Volatility > 0 {
			volatility = conditions.Volatility
		}
		if conditions.GasPriceMultiplier > 0 {
			gasMult = conditions.GasPriceMultiplier
		}
		congestion = clamp01(conditions.CongestionLevel)
	}

	base := c.rescale(opp, inputAmount, gasMult)
	scenarios := c.buildScenarios(opp, base, volatility, congestion)
	ratios := deriveRatios(scenarios, opp.Confidence)

	analysis := &Analysis{
		OpportunityID: opp.ID,
		InputAmount:   inputAmount,
		Base:          base,
		Scenarios:     scenarios,
		Ratios:        ratios,
		Costs: CostBreakdown{
			GasCosts:     base.GasCosts,
			PriorityFees: base.PriorityFees,
		},
		Impact:          c.assessImpact(opp, inputAmount, volatility, congestion),
		Recommendations: recommend(base, ratios, opp),
		Sensitivity:     c.sensitivity(opp, inputAmount, gasMult),
		GeneratedAt:     time.Now(),
	}

	CalculationsTotal.Inc()
	DurationSeconds.Observe(time.Since(start).Seconds())
	c.logger.Debug("analysis-complete",
		zap.String("opportunity-id", opp.ID),
		zap.Float64("input-amount", inputAmount),
		zap.Float64("net-profit", base.NetProfit),
		zap.Float64("probability-of-profit", ratios.ProbabilityOfProfit))

	return analysis, nil
}

// rescale projects the opportunity's profitability onto inputAmount. Gross
// profit scales with size but is dampened by incremental price impact;
// fixed per-hop costs do not scale with size.
func (c *Calculator) rescale(opp *detector.Opportunity, inputAmount, gasMult float64) detector.Profitability {
	baseAmount := opp.InputAmount()
	scale := 1.0
	if baseAmount > 0 {
		scale = inputAmount / baseAmount
	}

	impact := 0.0
	for _, hop := range opp.Route {
		impact += hop.PriceImpact
	}
	// Oversizing beyond the detected amount eats into the edge.
	dampen := 1.0
	if scale > 1 {
		dampen = 1 / (1 + (scale-1)*impact*10)
	}

	gross := opp.Profit.GrossProfit * scale * dampen
	gas := opp.Profit.GasCosts * gasMult
	priority := opp.Profit.PriorityFees * gasMult
	net := gross - gas - priority

	margin := 0.0
	roi := 0.0
	if inputAmount > 0 {
		margin = gross / inputAmount
		roi = net / inputAmount
	}

	return detector.Profitability{
		GrossProfit:         gross,
		GasCosts:            gas,
		PriorityFees:        priority,
		NetProfit:           net,
		Margin:              margin,
		ROI:                 roi,
		BreakevenAmount:     opp.Profit.BreakevenAmount,
		MaxProfitableAmount: opp.Profit.MaxProfitableAmount,
		EstimatedCostUSD:    gas + priority,
	}
}

// buildScenarios derives the conservative/base/optimistic distribution.
// Adjustments are additive so the ordering optimistic >= base >=
// conservative holds for any sign of the base profit.
func (c *Calculator) buildScenarios(opp *detector.Opportunity, base detector.Profitability, volatility, congestion float64) []Scenario {
	noise := c.model.Noise() * math.Abs(base.GrossProfit)
	expected := base.NetProfit + noise

	spread := volatility*math.Abs(base.GrossProfit) + 0.5
	hops := len(opp.Route)
	stepTime := time.Duration(800+400*hops) * time.Millisecond
	congestionTime := time.Duration(float64(stepTime) * congestion)

	return []Scenario{
		{
			Name:           "conservative",
			Probability:    0.3,
			ExpectedProfit: expected - spread,
			WorstCase:      expected - 2*spread,
			BestCase:       expected,
			ExecutionTime:  stepTime*2 + congestionTime,
			ComputeUnits:   uint64(200_000 * hops),
		},
		{
			Name:           "base",
			Probability:    0.5,
			ExpectedProfit: expected,
			WorstCase:      expected - spread,
			BestCase:       expected + spread,
			ExecutionTime:  stepTime + congestionTime,
			ComputeUnits:   uint64(150_000 * hops),
		},
		{
			Name:           "optimistic",
			Probability:    0.2,
			ExpectedProfit: expected + spread/2,
			WorstCase:      expected,
			BestCase:       expected + spread,
			ExecutionTime:  stepTime,
			ComputeUnits:   uint64(120_000 * hops),
		},
	}
}

// deriveRatios computes risk-adjusted figures from the scenario
// distribution.
func deriveRatios(scenarios []Scenario, confidence float64) Ratios {
	mean := 0.0
	for _, s := range scenarios {
		mean += s.Probability * s.ExpectedProfit
	}

	variance := 0.0
	downside := 0.0
	worst := math.Inf(1)
	probProfit := 0.0
	for _, s := range scenarios {
		d := s.ExpectedProfit - mean
		variance += s.Probability * d * d
		if s.ExpectedProfit < 0 {
			downside += s.Probability * s.ExpectedProfit * s.ExpectedProfit
		} else {
			probProfit += s.Probability
		}
		if s.WorstCase < worst {
			worst = s.WorstCase
		}
	}

	stddev := math.Sqrt(variance)
	sharpe := 0.0
	if stddev > 0 {
		sharpe = mean / stddev
	}
	sortino := sharpe
	if downside > 0 {
		sortino = mean / math.Sqrt(downside)
	}

	valueAtRisk := mean - 1.65*stddev
	conditionalVaR := valueAtRisk
	if worst < conditionalVaR {
		conditionalVaR = (valueAtRisk + worst) / 2
	}

	return Ratios{
		Sharpe:              sharpe,
		Sortino:             sortino,
		MaxDrawdown:         mean - worst,
		ValueAtRisk95:       valueAtRisk,
		ConditionalVaR95:    conditionalVaR,
		ProbabilityOfProfit: clamp01(probProfit * confidence),
	}
}

// assessImpact scores the market environment for this trade size.
func (c *Calculator) assessImpact(opp *detector.Opportunity, inputAmount, volatility, congestion float64) MarketImpact {
	return MarketImpact{
		LiquidityDepthScore: clamp01(1 - opp.Risk.Liquidity*(0.5+0.5*clamp01(inputAmount/opp.Profit.MaxProfitableAmount))),
		StabilityScore:      clamp01(1 - volatility*2),
		CompetitionPressure: clamp01(opp.Risk.Competition + congestion*0.2),
		TemporalDecay:       clamp01(opp.Risk.TemporalDecay),
	}
}

func recommend(base detector.Profitability, ratios Ratios, opp *detector.Opportunity) []Recommendation {
	var recs []Recommendation

	if base.NetProfit <= 0 {
		recs = append(recs, Recommendation{
			Action:    "skip",
			Rationale: "net profit is not positive at this input amount",
		})
	} else if ratios.ProbabilityOfProfit >= 0.6 && ratios.Sharpe >= 1 {
		recs = append(recs, Recommendation{
			Action:    "execute",
			Rationale: "favorable risk-adjusted return",
		})
	} else {
		recs = append(recs, Recommendation{
			Action:    "reduce-size",
			Rationale: "edge exists but the outcome distribution is wide",
		})
	}

	if opp.Risk.Mean() > 0.5 {
		recs = append(recs, Recommendation{
			Action:    "tighten-protections",
			Rationale: "elevated mean risk warrants stricter stop-loss and timing jitter",
		})
	}
	if base.NetProfit > 100 {
		recs = append(recs, Recommendation{
			Action:    "bundle-steps",
			Rationale: "profit large enough to attract front-runners",
		})
	}

	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}

// sensitivity samples the net-profit curve across +-50% perturbations of
// each driving factor.
func (c *Calculator) sensitivity(opp *detector.Opportunity, inputAmount, gasMult float64) map[string][]SensitivityPoint {
	multipliers := []float64{0.5, 0.75, 1.0, 1.25, 1.5}
	out := make(map[string][]SensitivityPoint, 2)

	for _, m := range multipliers {
		p := c.rescale(opp, inputAmount*m, gasMult)
		out["input_amount"] = append(out["input_amount"], SensitivityPoint{
			FactorMultiplier: m,
			NetProfit:        p.NetProfit,
		})
	}
	for _, m := range multipliers {
		p := c.rescale(opp, inputAmount, gasMult*m)
		out["gas_cost"] = append(out["gas_cost"], SensitivityPoint{
			FactorMultiplier: m,
			NetProfit:        p.NetProfit,
		})
	}
	return out
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
