// Package chain provides access to the upstream ledger: pool snapshot reads,
// pool/bin decoding and the opaque signing identity used per execution step.
package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nmoreno/poolarb/pkg/types"
)

// PoolReader reads the current state of a liquidity pool. Implementations:
// an indexer-backed client for live mode and a simulated reader for paper
// mode and tests. Read failures surface as *types.DataSourceError.
type PoolReader interface {
	ReadPool(ctx context.Context, address common.Address) (*types.Pool, error)
}
