package profitability

import (
	"errors"
	"math"
	"testing"

	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

func newTestCalculator() *Calculator {
	return New(Fixed{NoiseValue: 0, VolatilityValue: 0.05}, zap.NewNop())
}

func TestCalculateDetailed_NoRoute(t *testing.T) {
	calc := newTestCalculator()

	opp := detector.CreateTestOpportunity(50)
	opp.Route = nil

	_, err := calc.CalculateDetailed(opp, 1000, nil)
	var calcErr *types.CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("expected CalculationError, got %v", err)
	}
	if calcErr.OpportunityID != opp.ID {
		t.Errorf("error carries wrong opportunity id")
	}
}

func TestCalculateDetailed_NonPositiveAmount(t *testing.T) {
	calc := newTestCalculator()

	_, err := calc.CalculateDetailed(detector.CreateTestOpportunity(50), 0, nil)
	var calcErr *types.CalculationError
	if !errors.As(err, &calcErr) {
		t.Fatalf("expected CalculationError, got %v", err)
	}
}

func TestScenarioOrdering(t *testing.T) {
	calc := newTestCalculator()

	// Ordering must hold for profitable and unprofitable bases alike.
	for _, net := range []float64{50, -5} {
		analysis, err := calc.CalculateDetailed(detector.CreateTestOpportunity(net), 1000, nil)
		if err != nil {
			t.Fatalf("calculate: %v", err)
		}

		byName := make(map[string]Scenario, len(analysis.Scenarios))
		for _, s := range analysis.Scenarios {
			byName[s.Name] = s
		}

		conservative, base, optimistic := byName["conservative"], byName["base"], byName["optimistic"]
		if optimistic.ExpectedProfit < base.ExpectedProfit {
			t.Errorf("net=%f: optimistic %f < base %f", net, optimistic.ExpectedProfit, base.ExpectedProfit)
		}
		if base.ExpectedProfit < conservative.ExpectedProfit {
			t.Errorf("net=%f: base %f < conservative %f", net, base.ExpectedProfit, conservative.ExpectedProfit)
		}

		for _, s := range analysis.Scenarios {
			if s.WorstCase > s.ExpectedProfit || s.ExpectedProfit > s.BestCase {
				t.Errorf("scenario %s range inverted: worst=%f expected=%f best=%f",
					s.Name, s.WorstCase, s.ExpectedProfit, s.BestCase)
			}
			if s.Probability <= 0 || s.Probability > 1 {
				t.Errorf("scenario %s probability out of range: %f", s.Name, s.Probability)
			}
		}
	}
}

func TestCostBreakdownSumsToGrossMinusNet(t *testing.T) {
	calc := newTestCalculator()

	for _, amount := range []float64{500, 1000, 5000} {
		analysis, err := calc.CalculateDetailed(detector.CreateTestOpportunity(50), amount, nil)
		if err != nil {
			t.Fatalf("calculate: %v", err)
		}

		want := analysis.Base.GrossProfit - analysis.Base.NetProfit
		if math.Abs(analysis.Costs.Total()-want) > 1e-9 {
			t.Errorf("amount %f: cost total %f != gross-net %f", amount, analysis.Costs.Total(), want)
		}
	}
}

func TestMarketImpactBounded(t *testing.T) {
	calc := newTestCalculator()

	analysis, err := calc.CalculateDetailed(detector.CreateTestOpportunity(50), 1000, &MarketConditions{
		Volatility:      0.8,
		CongestionLevel: 0.9,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	scores := map[string]float64{
		"liquidity_depth":      analysis.Impact.LiquidityDepthScore,
		"stability":            analysis.Impact.StabilityScore,
		"competition_pressure": analysis.Impact.CompetitionPressure,
		"temporal_decay":       analysis.Impact.TemporalDecay,
	}
	for name, score := range scores {
		if score < 0 || score > 1 {
			t.Errorf("%s out of [0,1]: %f", name, score)
		}
	}

	if p := analysis.Ratios.ProbabilityOfProfit; p < 0 || p > 1 {
		t.Errorf("probability of profit out of [0,1]: %f", p)
	}
}

func TestGasMultiplierScalesCosts(t *testing.T) {
	calc := newTestCalculator()
	opp := detector.CreateTestOpportunity(50)

	base, err := calc.CalculateDetailed(opp, 1000, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	doubled, err := calc.CalculateDetailed(opp, 1000, &MarketConditions{GasPriceMultiplier: 2})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if math.Abs(doubled.Base.GasCosts-2*base.Base.GasCosts) > 1e-9 {
		t.Errorf("gas costs did not scale with multiplier: %f vs %f", doubled.Base.GasCosts, base.Base.GasCosts)
	}
	if doubled.Base.NetProfit >= base.Base.NetProfit {
		t.Errorf("net profit should fall when gas doubles")
	}
}

func TestRecommendationsRankedAndRelevant(t *testing.T) {
	calc := newTestCalculator()

	// Large profit triggers the bundling recommendation.
	analysis, err := calc.CalculateDetailed(detector.CreateTestOpportunity(150), 1000, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if len(analysis.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}
	bundled := false
	for i, rec := range analysis.Recommendations {
		if rec.Rank != i+1 {
			t.Errorf("recommendation %d has rank %d", i, rec.Rank)
		}
		if rec.Action == "bundle-steps" {
			bundled = true
		}
	}
	if !bundled {
		t.Error("expected bundle-steps recommendation for large profit")
	}
}

func TestSensitivityCurves(t *testing.T) {
	calc := newTestCalculator()

	analysis, err := calc.CalculateDetailed(detector.CreateTestOpportunity(50), 1000, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	gas := analysis.Sensitivity["gas_cost"]
	if len(gas) != 5 {
		t.Fatalf("expected 5 gas sensitivity points, got %d", len(gas))
	}
	// Net profit must fall monotonically as gas rises.
	for i := 1; i < len(gas); i++ {
		if gas[i].NetProfit >= gas[i-1].NetProfit {
			t.Errorf("gas sensitivity not monotone at %d", i)
		}
	}

	if len(analysis.Sensitivity["input_amount"]) != 5 {
		t.Errorf("expected 5 input-amount sensitivity points")
	}
}

func TestFixedModelIsDeterministic(t *testing.T) {
	calc := newTestCalculator()
	opp := detector.CreateTestOpportunity(50)

	a, err := calc.CalculateDetailed(opp, 1000, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	b, err := calc.CalculateDetailed(opp, 1000, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	if a.Base.NetProfit != b.Base.NetProfit || a.Ratios.Sharpe != b.Ratios.Sharpe {
		t.Error("fixed model should produce identical analyses")
	}
}
