package chain

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/goccy/go-json"
	"github.com/nmoreno/poolarb/pkg/cache"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

// readCacheTTL bounds how stale a cached snapshot may be served. Scan
// cycles and API reads within the window share one indexer fetch.
const readCacheTTL = time.Second

// Client reads pool state from a DLMM indexer API, with an optional RPC
// connection used for liveness checks. The indexer payload is treated as
// ground truth and only null-checked, not re-validated.
type Client struct {
	indexerURL string
	httpClient *http.Client
	eth        *ethclient.Client
	cache      cache.Cache
	logger     *zap.Logger
}

// ClientConfig holds chain client configuration.
type ClientConfig struct {
	IndexerURL string
	RPCURL     string      // optional; enables Ping
	Cache      cache.Cache // optional; dedupes bursty reads
	Logger     *zap.Logger
}

// NewClient creates a new chain client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	c := &Client{
		indexerURL: cfg.IndexerURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache:  cfg.Cache,
		logger: cfg.Logger,
	}

	if cfg.RPCURL != "" {
		eth, err := ethclient.Dial(cfg.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("dial rpc: %w", err)
		}
		c.eth = eth
	}

	return c, nil
}

// poolPayload is the indexer's wire representation of a pool account.
type poolPayload struct {
	Address   string  `json:"address"`
	TokenX    string  `json:"token_x"`
	TokenY    string  `json:"token_y"`
	SymbolX   string  `json:"symbol_x"`
	SymbolY   string  `json:"symbol_y"`
	DecimalsX uint8   `json:"decimals_x"`
	DecimalsY uint8   `json:"decimals_y"`
	ActiveBin int32   `json:"active_bin"`
	BinStep   uint16  `json:"bin_step"`
	ReserveX  float64 `json:"reserve_x"`
	ReserveY  float64 `json:"reserve_y"`
	Volume24h float64 `json:"volume_24h"`
	FeeBPS    float64 `json:"fee_bps"`
}

// ReadPool fetches and decodes the pool account at the given address.
func (c *Client) ReadPool(ctx context.Context, address common.Address) (*types.Pool, error) {
	cacheKey := "pool:" + address.Hex()
	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if pool, ok := cached.(*types.Pool); ok {
				cp := *pool
				return &cp, nil
			}
		}
	}

	requestURL := fmt.Sprintf("%s/pair/%s", c.indexerURL, address.Hex())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &types.DataSourceError{Pool: address, Op: "build-request", Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "poolarb/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.DataSourceError{Pool: address, Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &types.DataSourceError{
			Pool: address,
			Op:   "fetch",
			Err:  fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.DataSourceError{Pool: address, Op: "read-body", Err: err}
	}

	var payload poolPayload
	err = json.Unmarshal(body, &payload)
	if err != nil {
		return nil, &types.DataSourceError{Pool: address, Op: "decode", Err: err}
	}

	pool, err := decodePool(address, &payload)
	if err != nil {
		return nil, &types.DataSourceError{Pool: address, Op: "decode", Err: err}
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, pool, readCacheTTL)
	}

	c.logger.Debug("pool-read",
		zap.String("pool", address.Hex()),
		zap.Float64("reserve-x", pool.ReserveX),
		zap.Float64("reserve-y", pool.ReserveY),
		zap.Int32("active-bin", pool.ActiveBin))

	return pool, nil
}

// Ping verifies the RPC connection is alive. No-op without an RPC URL.
func (c *Client) Ping(ctx context.Context) error {
	if c.eth == nil {
		return nil
	}

	_, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("block number: %w", err)
	}
	return nil
}

// Close releases the RPC connection if one was opened.
func (c *Client) Close() {
	if c.eth != nil {
		c.eth.Close()
	}
}
