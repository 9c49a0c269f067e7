package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TokenInfo describes one side of a pool's trading pair.
type TokenInfo struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

// Pool is a snapshot of an on-chain liquidity venue. Snapshots are refreshed
// on every scan cycle; the registry is the only writer.
type Pool struct {
	Address     common.Address `json:"address"`
	TokenX      TokenInfo      `json:"token_x"`
	TokenY      TokenInfo      `json:"token_y"`
	ActiveBin   int32          `json:"active_bin"`
	BinStep     uint16         `json:"bin_step"`
	ReserveX    float64        `json:"reserve_x"`
	ReserveY    float64        `json:"reserve_y"`
	Volume24h   float64        `json:"volume_24h"`
	FeeRate     float64        `json:"fee_rate"`
	SlippageEst float64        `json:"slippage_est"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// MidPrice returns the pool's spot price of TokenX quoted in TokenY.
// Returns 0 when the X reserve is empty.
func (p *Pool) MidPrice() float64 {
	if p.ReserveX <= 0 {
		return 0
	}
	return p.ReserveY / p.ReserveX
}

// TradesPair reports whether the pool trades the given token pair,
// in either orientation.
func (p *Pool) TradesPair(a, b common.Address) bool {
	return (p.TokenX.Address == a && p.TokenY.Address == b) ||
		(p.TokenX.Address == b && p.TokenY.Address == a)
}

// HasToken reports whether the pool trades the given token on either side.
func (p *Pool) HasToken(token common.Address) bool {
	return p.TokenX.Address == token || p.TokenY.Address == token
}

// OtherToken returns the pool's opposite token for the given one.
// The second return is false when the pool does not trade the token.
func (p *Pool) OtherToken(token common.Address) (TokenInfo, bool) {
	switch token {
	case p.TokenX.Address:
		return p.TokenY, true
	case p.TokenY.Address:
		return p.TokenX, true
	}
	return TokenInfo{}, false
}

// DepthFor returns the reserve backing the given token side, 0 if absent.
func (p *Pool) DepthFor(token common.Address) float64 {
	switch token {
	case p.TokenX.Address:
		return p.ReserveX
	case p.TokenY.Address:
		return p.ReserveY
	}
	return 0
}
