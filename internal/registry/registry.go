// Package registry tracks the set of liquidity pools under observation and
// their latest snapshots. The registry is the single writer of pool state;
// other components read through its accessors.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nmoreno/poolarb/internal/chain"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

// Registry owns the monitored pool set.
type Registry struct {
	reader chain.PoolReader
	logger *zap.Logger

	mu    sync.RWMutex
	pools map[common.Address]*types.Pool

	hookMu      sync.Mutex
	removeHooks []func(common.Address)
}

// New creates a pool registry backed by the given reader.
func New(reader chain.PoolReader, logger *zap.Logger) *Registry {
	return &Registry{
		reader: reader,
		logger: logger,
		pools:  make(map[common.Address]*types.Pool),
	}
}

// OnRemove registers a hook invoked after a pool is evicted. The detector
// uses this to cascade removal of opportunities referencing the pool.
func (r *Registry) OnRemove(hook func(common.Address)) {
	r.hookMu.Lock()
	r.removeHooks = append(r.removeHooks, hook)
	r.hookMu.Unlock()
}

// AddPool fetches an initial snapshot for the venue and starts tracking it.
// Returns a *types.DataSourceError when the venue cannot be read.
func (r *Registry) AddPool(ctx context.Context, address common.Address) (*types.Pool, error) {
	pool, err := r.reader.ReadPool(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("add pool %s: %w", address.Hex(), err)
	}

	r.mu.Lock()
	r.pools[address] = pool
	count := len(r.pools)
	r.mu.Unlock()

	PoolsTracked.Set(float64(count))
	r.logger.Info("pool-added",
		zap.String("pool", address.Hex()),
		zap.String("pair", pool.TokenX.Symbol+"/"+pool.TokenY.Symbol),
		zap.Float64("mid-price", pool.MidPrice()))

	return pool, nil
}

// RemovePool evicts the pool and fires removal hooks so dependent state
// (active opportunities) is cascaded away.
func (r *Registry) RemovePool(address common.Address) {
	r.mu.Lock()
	_, existed := r.pools[address]
	delete(r.pools, address)
	count := len(r.pools)
	r.mu.Unlock()

	if !existed {
		r.logger.Debug("remove-pool-unknown", zap.String("pool", address.Hex()))
		return
	}

	PoolsTracked.Set(float64(count))
	r.logger.Info("pool-removed", zap.String("pool", address.Hex()))

	r.hookMu.Lock()
	hooks := append([]func(common.Address){}, r.removeHooks...)
	r.hookMu.Unlock()

	for _, hook := range hooks {
		hook(address)
	}
}

// RefreshAll re-fetches every tracked pool. A per-pool fetch error is
// logged and counted but never fails the batch.
func (r *Registry) RefreshAll(ctx context.Context) {
	for _, address := range r.Addresses() {
		pool, err := r.reader.ReadPool(ctx, address)
		if err != nil {
			RefreshErrorsTotal.Inc()
			r.logger.Warn("pool-refresh-failed",
				zap.String("pool", address.Hex()),
				zap.Error(err))
			continue
		}

		r.mu.Lock()
		// Pool may have been removed while the fetch was in flight
		if _, still := r.pools[address]; still {
			r.pools[address] = pool
		}
		r.mu.Unlock()
	}

	RefreshesTotal.Inc()
}

// ApplyUpdate stores a pushed snapshot (websocket feed path). Updates for
// untracked pools are dropped.
func (r *Registry) ApplyUpdate(pool *types.Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, tracked := r.pools[pool.Address]; !tracked {
		return
	}
	r.pools[pool.Address] = pool
}

// Get returns the latest snapshot for the address.
func (r *Registry) Get(address common.Address) (*types.Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool, ok := r.pools[address]
	if !ok {
		return nil, false
	}
	cp := *pool
	return &cp, true
}

// Pools returns copies of all tracked pool snapshots, ordered by address
// for deterministic iteration.
func (r *Registry) Pools() []*types.Pool {
	r.mu.RLock()
	out := make([]*types.Pool, 0, len(r.pools))
	for _, pool := range r.pools {
		cp := *pool
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Address.Hex() < out[j].Address.Hex()
	})
	return out
}

// Addresses returns all tracked pool addresses.
func (r *Registry) Addresses() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]common.Address, 0, len(r.pools))
	for address := range r.pools {
		out = append(out, address)
	}
	return out
}

// Len returns the number of tracked pools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}
