package chain

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nmoreno/poolarb/pkg/types"
)

// decodePool maps an indexer payload onto a pool snapshot. Only null-checks
// are applied; the decoder output is treated as ground truth.
func decodePool(address common.Address, p *poolPayload) (*types.Pool, error) {
	if p == nil {
		return nil, fmt.Errorf("nil pool payload")
	}

	if p.TokenX == "" || p.TokenY == "" {
		return nil, fmt.Errorf("pool payload missing token addresses")
	}

	return &types.Pool{
		Address: address,
		TokenX: types.TokenInfo{
			Address:  common.HexToAddress(p.TokenX),
			Symbol:   p.SymbolX,
			Decimals: p.DecimalsX,
		},
		TokenY: types.TokenInfo{
			Address:  common.HexToAddress(p.TokenY),
			Symbol:   p.SymbolY,
			Decimals: p.DecimalsY,
		},
		ActiveBin:   p.ActiveBin,
		BinStep:     p.BinStep,
		ReserveX:    p.ReserveX,
		ReserveY:    p.ReserveY,
		Volume24h:   p.Volume24h,
		FeeRate:     p.FeeBPS / 10_000.0,
		SlippageEst: estimateSlippage(p.ReserveX, p.ReserveY, p.Volume24h),
		UpdatedAt:   time.Now(),
	}, nil
}

// estimateSlippage derives a coarse slippage estimate from the ratio of
// daily volume to pooled liquidity. Bounded to [0.0005, 0.05].
func estimateSlippage(reserveX, reserveY, volume24h float64) float64 {
	liquidity := reserveX + reserveY
	if liquidity <= 0 {
		return 0.05
	}

	est := 0.0005 + 0.01*(volume24h/(volume24h+liquidity))
	if est > 0.05 {
		est = 0.05
	}
	return est
}
