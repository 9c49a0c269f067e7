package chain

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nmoreno/poolarb/pkg/types"
)

// SimReader is a deterministic PoolReader for paper mode and tests. Pools
// are seeded explicitly; each read applies a small seeded drift to the
// reserves so scan cycles see movement.
type SimReader struct {
	mu    sync.Mutex
	pools map[common.Address]*types.Pool
	rng   *rand.Rand
	drift float64
}

// NewSimReader creates a simulated reader. drift is the maximum relative
// reserve change applied per read (0 disables movement).
func NewSimReader(seed int64, drift float64) *SimReader {
	return &SimReader{
		pools: make(map[common.Address]*types.Pool),
		rng:   rand.New(rand.NewSource(seed)),
		drift: drift,
	}
}

// SetPool seeds or replaces a simulated pool.
func (s *SimReader) SetPool(pool *types.Pool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *pool
	s.pools[pool.Address] = &cp
}

// SeedDefault seeds a synthetic SOL/USDC pool for the address. The price
// varies a little per address so multiple seeded pools expose cross-pool
// gaps. Paper mode uses this for the configured pools.
func (s *SimReader) SeedDefault(address common.Address) {
	offset := float64(address[common.AddressLength-1]%8) / 800
	price := 100 * (1 + offset)

	s.SetPool(&types.Pool{
		Address: address,
		TokenX: types.TokenInfo{
			Address:  common.HexToAddress("0x00000000000000000000000000000000000050a1"),
			Symbol:   "SOL",
			Decimals: 9,
		},
		TokenY: types.TokenInfo{
			Address:  common.HexToAddress("0x000000000000000000000000000000000000a5dc"),
			Symbol:   "USDC",
			Decimals: 6,
		},
		ActiveBin:   8_388_608,
		BinStep:     20,
		ReserveX:    50_000,
		ReserveY:    50_000 * price,
		Volume24h:   500_000,
		FeeRate:     0.0025,
		SlippageEst: 0.001,
		UpdatedAt:   time.Now(),
	})
}

// ReadPool returns the current simulated snapshot, applying drift.
func (s *SimReader) ReadPool(ctx context.Context, address common.Address) (*types.Pool, error) {
	if err := ctx.Err(); err != nil {
		return nil, &types.DataSourceError{Pool: address, Op: "read", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[address]
	if !ok {
		return nil, &types.DataSourceError{Pool: address, Op: "read", Err: errors.New("unknown pool")}
	}

	if s.drift > 0 {
		pool.ReserveX *= 1 + (s.rng.Float64()*2-1)*s.drift
		pool.ReserveY *= 1 + (s.rng.Float64()*2-1)*s.drift
	}
	pool.UpdatedAt = time.Now()

	cp := *pool
	return &cp, nil
}
