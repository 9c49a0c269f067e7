package detector

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/nmoreno/poolarb/pkg/types"
)

// Exported test fixtures live here (not in a _test.go file) so dependent
// packages can build opportunities without an import cycle.

// CreateTestPool builds a pool snapshot trading SOL/USDC at the given
// mid price with the given SOL-side depth.
func CreateTestPool(addr common.Address, price, depthX float64) *types.Pool {
	return &types.Pool{
		Address: addr,
		TokenX: types.TokenInfo{
			Address:  common.HexToAddress("0x00000000000000000000000000000000000000f1"),
			Symbol:   "SOL",
			Decimals: 9,
		},
		TokenY: types.TokenInfo{
			Address:  common.HexToAddress("0x00000000000000000000000000000000000000f2"),
			Symbol:   "USDC",
			Decimals: 6,
		},
		ActiveBin: 8_388_608,
		BinStep:   20,
		ReserveX:  depthX,
		ReserveY:  depthX * price,
		Volume24h: 250_000,
		FeeRate:   0.001,
		UpdatedAt: time.Now(),
	}
}

// CreateTestOpportunity builds a direct opportunity with a consistent
// profitability snapshot (net = gross - gas - priority) and medium risk.
func CreateTestOpportunity(netProfit float64) *Opportunity {
	poolA := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	poolB := common.HexToAddress("0x00000000000000000000000000000000000000a2")
	usdc := types.TokenInfo{
		Address:  common.HexToAddress("0x00000000000000000000000000000000000000f2"),
		Symbol:   "USDC",
		Decimals: 6,
	}
	sol := types.TokenInfo{
		Address:  common.HexToAddress("0x00000000000000000000000000000000000000f1"),
		Symbol:   "SOL",
		Decimals: 9,
	}

	gas, priority := 1.7, 0.3
	gross := netProfit + gas + priority
	amountIn := 1000.0

	route := []RouteHop{
		{Pool: poolA, TokenIn: usdc, TokenOut: sol, AmountIn: amountIn, AmountOut: 9.98, PriceImpact: 0.001},
		{Pool: poolB, TokenIn: sol, TokenOut: usdc, AmountIn: 9.98, AmountOut: amountIn + gross, PriceImpact: 0.001},
	}

	risk := Risk{
		Liquidity:     0.3,
		Slippage:      0.2,
		Reordering:    0.3,
		TemporalDecay: 0.35,
		Competition:   0.35,
	}
	risk.Overall = types.RiskLevelFromScore(risk.Mean())
	risk.Factors = []string{"no elevated risk components"}

	return &Opportunity{
		ID:         uuid.New().String(),
		Type:       TypeDirect,
		InputToken: usdc,
		Pools:      []common.Address{poolA, poolB},
		Route:      route,
		Profit: Profitability{
			GrossProfit:         gross,
			GasCosts:            gas,
			PriorityFees:        priority,
			NetProfit:           netProfit,
			Margin:              gross / amountIn,
			ROI:                 netProfit / amountIn,
			BreakevenAmount:     500,
			MaxProfitableAmount: 10_000,
			EstimatedCostUSD:    gas + priority,
		},
		Risk: risk,
		Steps: []ExecutionStep{
			{Index: 0, Description: "swap USDC -> SOL", Pool: poolA, AmountIn: amountIn, MinAmountOut: 9.97},
			{Index: 1, Description: "swap SOL -> USDC", Pool: poolB, AmountIn: 9.98, MinAmountOut: amountIn, DependsOn: []int{0}},
		},
		ProtectiveTiming: "randomized-delay",
		DetectedAt:       time.Now(),
		Confidence:       0.85,
	}
}
