package detector

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nmoreno/poolarb/pkg/types"
)

var (
	addrA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	addrB = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	addrC = common.HexToAddress("0x00000000000000000000000000000000000000a3")
)

func TestMatchDirect_PriceGap(t *testing.T) {
	// Same pair, pool A at 100, pool B at 101: buying on A and selling
	// on B clears fees, impact and fixed costs.
	pools := []*types.Pool{
		CreateTestPool(addrA, 100, 100_000),
		CreateTestPool(addrB, 101, 100_000),
	}

	opps := matchDirect(pools)
	if len(opps) == 0 {
		t.Fatal("expected at least one direct opportunity")
	}

	for _, opp := range opps {
		if opp.Type != TypeDirect {
			t.Errorf("expected type direct, got %s", opp.Type)
		}
		if opp.Profit.NetProfit <= 0 {
			t.Errorf("expected positive net profit, got %f", opp.Profit.NetProfit)
		}
	}
}

func TestMatchDirect_EfficientMarket(t *testing.T) {
	// Identical prices: the fee and fixed costs make every direction
	// unprofitable, so no candidate is constructed.
	pools := []*types.Pool{
		CreateTestPool(addrA, 100, 100_000),
		CreateTestPool(addrB, 100, 100_000),
	}

	opps := matchDirect(pools)
	if len(opps) != 0 {
		t.Errorf("expected no opportunities in efficient market, got %d", len(opps))
	}
}

func TestMatchDirect_DisjointPairs(t *testing.T) {
	a := CreateTestPool(addrA, 100, 100_000)
	b := CreateTestPool(addrB, 101, 100_000)
	// Change pool B's pair so the pools no longer overlap
	b.TokenX.Address = common.HexToAddress("0x00000000000000000000000000000000000000f9")

	opps := matchDirect([]*types.Pool{a, b})
	if len(opps) != 0 {
		t.Errorf("expected no opportunities across disjoint pairs, got %d", len(opps))
	}
}

func TestProfitabilityInvariant(t *testing.T) {
	pools := []*types.Pool{
		CreateTestPool(addrA, 100, 100_000),
		CreateTestPool(addrB, 101, 100_000),
	}

	for _, opp := range matchDirect(pools) {
		got := opp.Profit.GrossProfit - opp.Profit.GasCosts - opp.Profit.PriorityFees
		diff := got - opp.Profit.NetProfit
		if diff > 1e-9 || diff < -1e-9 {
			t.Errorf("net profit invariant violated: gross=%f gas=%f priority=%f net=%f",
				opp.Profit.GrossProfit, opp.Profit.GasCosts, opp.Profit.PriorityFees, opp.Profit.NetProfit)
		}
	}
}

func TestRiskComponentsBounded(t *testing.T) {
	pools := []*types.Pool{
		CreateTestPool(addrA, 100, 100_000),
		CreateTestPool(addrB, 101, 100_000),
	}

	for _, opp := range matchDirect(pools) {
		components := []float64{
			opp.Risk.Liquidity,
			opp.Risk.Slippage,
			opp.Risk.Reordering,
			opp.Risk.TemporalDecay,
			opp.Risk.Competition,
		}
		for i, c := range components {
			if c < 0 || c > 1 {
				t.Errorf("risk component %d out of [0,1]: %f", i, c)
			}
		}

		if !opp.Risk.Overall.Valid() {
			t.Errorf("invalid overall risk label %q", opp.Risk.Overall)
		}

		if opp.Confidence < 0 || opp.Confidence > 1 {
			t.Errorf("confidence out of [0,1]: %f", opp.Confidence)
		}
	}
}

func TestOverallRiskMonotonicInMean(t *testing.T) {
	levels := []float64{0.1, 0.3, 0.5, 0.9}
	prev := -1
	for _, mean := range levels {
		rank := types.RiskLevelFromScore(mean).Rank()
		if rank < prev {
			t.Errorf("risk label rank decreased for mean %f", mean)
		}
		prev = rank
	}
}

func TestStepDependenciesChained(t *testing.T) {
	pools := []*types.Pool{
		CreateTestPool(addrA, 100, 100_000),
		CreateTestPool(addrB, 101, 100_000),
	}

	opps := matchDirect(pools)
	if len(opps) == 0 {
		t.Fatal("expected opportunities")
	}

	for _, opp := range opps {
		for i, step := range opp.Steps {
			if i == 0 && len(step.DependsOn) != 0 {
				t.Errorf("first step should have no dependencies, got %v", step.DependsOn)
			}
			if i > 0 && (len(step.DependsOn) != 1 || step.DependsOn[0] != i-1) {
				t.Errorf("step %d should depend on %d, got %v", i, i-1, step.DependsOn)
			}
		}
	}
}

func TestMatchTriangular_Cycle(t *testing.T) {
	sol := types.TokenInfo{Address: common.HexToAddress("0x00000000000000000000000000000000000000f1"), Symbol: "SOL", Decimals: 9}
	usdc := types.TokenInfo{Address: common.HexToAddress("0x00000000000000000000000000000000000000f2"), Symbol: "USDC", Decimals: 6}
	bonk := types.TokenInfo{Address: common.HexToAddress("0x00000000000000000000000000000000000000f3"), Symbol: "BONK", Decimals: 5}

	pair := func(addr common.Address, x, y types.TokenInfo, rx, ry float64) *types.Pool {
		return &types.Pool{
			Address: addr, TokenX: x, TokenY: y,
			ReserveX: rx, ReserveY: ry,
			FeeRate: 0.001, Volume24h: 100_000,
		}
	}

	// SOL/USDC at 100, USDC/BONK at 50, BONK/SOL priced to leave an edge
	// after fees: 1 SOL -> 100 USDC -> 5000 BONK -> 1.02 SOL.
	pools := []*types.Pool{
		pair(addrA, sol, usdc, 100_000, 10_000_000),
		pair(addrB, usdc, bonk, 10_000_000, 500_000_000),
		pair(addrC, bonk, sol, 500_000_000, 102_000),
	}

	opps := matchTriangular(pools)
	if len(opps) == 0 {
		t.Fatal("expected a triangular opportunity")
	}

	found := false
	for _, opp := range opps {
		if opp.Type == TypeTriangular && len(opp.Route) == 3 && opp.Profit.NetProfit > 0 {
			found = true
		}
	}
	if !found {
		t.Error("expected a profitable 3-hop cycle")
	}
}
