package detector

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/nmoreno/poolarb/pkg/types"
)

// Candidate trade sizes, as fractions of the start token's depth in the
// first pool. The best-performing size wins; impact makes the profit
// curve concave so a small grid is enough.
var tradeFractions = []float64{0.0005, 0.001, 0.002, 0.005, 0.01}

// maxRouteHops bounds multi-hop path search.
const maxRouteHops = 4

// swapOut prices a single swap of amountIn of tokenIn through the pool.
// Returns the output amount and the price impact of the trade itself.
func swapOut(pool *types.Pool, tokenIn common.Address, amountIn float64) (out float64, impact float64, ok bool) {
	depthIn := pool.DepthFor(tokenIn)
	outToken, ok := pool.OtherToken(tokenIn)
	if !ok || depthIn <= 0 {
		return 0, 0, false
	}

	depthOut := pool.DepthFor(outToken.Address)
	if depthOut <= 0 {
		return 0, 0, false
	}

	price := depthOut / depthIn
	impact = amountIn / (depthIn + amountIn)
	out = amountIn * price * (1 - pool.FeeRate) * (1 - impact)
	return out, impact, true
}

// priceRoute walks amountIn through the pool sequence starting from the
// given token and returns the priced hops. The sequence must form a cycle
// back to the start token; returns false otherwise.
func priceRoute(seq []*types.Pool, start types.TokenInfo, amountIn float64) ([]RouteHop, bool) {
	route := make([]RouteHop, 0, len(seq))
	token := start
	amount := amountIn

	for _, pool := range seq {
		outToken, ok := pool.OtherToken(token.Address)
		if !ok {
			return nil, false
		}

		out, impact, ok := swapOut(pool, token.Address, amount)
		if !ok || out <= 0 {
			return nil, false
		}

		route = append(route, RouteHop{
			Pool:        pool.Address,
			TokenIn:     token,
			TokenOut:    outToken,
			AmountIn:    amount,
			AmountOut:   out,
			PriceImpact: impact,
		})

		token = outToken
		amount = out
	}

	if token.Address != start.Address {
		return nil, false
	}
	return route, true
}

// bestRoute sizes the cycle over the trade-fraction grid and returns the
// most profitable priced route, or false when no size clears fixed costs.
func bestRoute(seq []*types.Pool, start types.TokenInfo) ([]RouteHop, bool) {
	depth := seq[0].DepthFor(start.Address)
	if depth <= 0 {
		return nil, false
	}

	fixedCosts := (gasCostPerHopUSD + priorityFeePerHopUSD) * float64(len(seq))

	var best []RouteHop
	bestNet := 0.0

	for _, fraction := range tradeFractions {
		amountIn := depth * fraction
		route, ok := priceRoute(seq, start, amountIn)
		if !ok {
			return nil, false
		}

		net := route[len(route)-1].AmountOut - amountIn - fixedCosts
		if net > bestNet {
			bestNet = net
			best = route
		}
	}

	return best, best != nil
}

// matchDirect finds two-pool cycles over the same (possibly flipped) token
// pair. A candidate is only constructed, and only kept, when its derived
// net profit is positive.
func matchDirect(pools []*types.Pool) []*Opportunity {
	var out []*Opportunity

	for i := 0; i < len(pools); i++ {
		for j := i + 1; j < len(pools); j++ {
			a, b := pools[i], pools[j]
			if !a.TradesPair(b.TokenX.Address, b.TokenY.Address) {
				continue
			}

			// Try both orderings and both start tokens; pricing keeps
			// whichever direction actually carries the edge.
			for _, seq := range [][]*types.Pool{{a, b}, {b, a}} {
				for _, start := range []types.TokenInfo{seq[0].TokenX, seq[0].TokenY} {
					route, ok := bestRoute(seq, start)
					if !ok {
						continue
					}

					opp := newOpportunity(TypeDirect, start, route, seq)
					if opp.Profit.NetProfit <= 0 {
						continue
					}
					out = append(out, opp)
				}
			}
		}
	}

	return out
}

// matchTriangular finds three-pool cycles A->B->C->A across distinct pools.
func matchTriangular(pools []*types.Pool) []*Opportunity {
	var out []*Opportunity

	for i := 0; i < len(pools); i++ {
		for j := 0; j < len(pools); j++ {
			if j == i {
				continue
			}
			for k := 0; k < len(pools); k++ {
				if k == i || k == j {
					continue
				}

				seq := []*types.Pool{pools[i], pools[j], pools[k]}
				for _, start := range []types.TokenInfo{seq[0].TokenX, seq[0].TokenY} {
					route, ok := bestRoute(seq, start)
					if !ok {
						continue
					}

					opp := newOpportunity(TypeTriangular, start, route, seq)
					if opp.Profit.NetProfit <= 0 {
						continue
					}
					out = append(out, opp)
				}
			}
		}
	}

	return out
}

// matchMultiHop searches cycles of exactly maxRouteHops pools via DFS.
// Shorter cycles are the direct/triangular matchers' territory.
func matchMultiHop(pools []*types.Pool) []*Opportunity {
	var out []*Opportunity

	var dfs func(seq []*types.Pool, used map[common.Address]bool, start types.TokenInfo, token types.TokenInfo)
	dfs = func(seq []*types.Pool, used map[common.Address]bool, start, token types.TokenInfo) {
		if len(seq) == maxRouteHops {
			if token.Address != start.Address {
				return
			}
			route, ok := bestRoute(seq, start)
			if !ok {
				return
			}
			opp := newOpportunity(TypeMultiHop, start, route, seq)
			if opp.Profit.NetProfit <= 0 {
				return
			}
			out = append(out, opp)
			return
		}

		for _, pool := range pools {
			if used[pool.Address] || !pool.HasToken(token.Address) {
				continue
			}
			next, _ := pool.OtherToken(token.Address)

			used[pool.Address] = true
			dfs(append(seq, pool), used, start, next)
			used[pool.Address] = false
		}
	}

	for _, first := range pools {
		for _, start := range []types.TokenInfo{first.TokenX, first.TokenY} {
			next, _ := first.OtherToken(start.Address)
			used := map[common.Address]bool{first.Address: true}
			dfs([]*types.Pool{first}, used, start, next)
		}
	}

	return out
}
