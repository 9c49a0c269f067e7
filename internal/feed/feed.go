// Package feed streams pool snapshot updates over websocket into the
// registry, so scan cycles between refreshes see fresh reserves.
package feed

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/nmoreno/poolarb/internal/registry"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

// Config holds feed configuration.
type Config struct {
	URL                   string
	DialTimeout           time.Duration
	PingInterval          time.Duration
	PongTimeout           time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	JitterPercent         float64
	Logger                *zap.Logger
}

// updateMessage is the wire shape of one pushed pool snapshot. It matches
// the indexer's REST payload.
type updateMessage struct {
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

// Feed is a websocket consumer of pool updates.
type Feed struct {
	config   Config
	logger   *zap.Logger
	registry *registry.Registry

	mu      sync.Mutex
	backoff time.Duration
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a feed over the given registry.
func New(cfg Config, reg *registry.Registry) *Feed {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 10 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = 15 * time.Second
	}
	if cfg.ReconnectInitialDelay <= 0 {
		cfg.ReconnectInitialDelay = time.Second
	}
	if cfg.ReconnectMaxDelay <= 0 {
		cfg.ReconnectMaxDelay = time.Minute
	}
	if cfg.ReconnectBackoffMult <= 1 {
		cfg.ReconnectBackoffMult = 2
	}

	return &Feed{
		config:   cfg,
		logger:   cfg.Logger,
		registry: reg,
		backoff:  cfg.ReconnectInitialDelay,
	}
}

// Start launches the consume loop. The loop reconnects with jittered
// exponential backoff until Stop or context cancellation.
func (f *Feed) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	f.wg.Add(1)
	go f.run(ctx)

	f.logger.Info("feed-starting", zap.String("url", f.config.URL))
}

// Stop terminates the consume loop and waits for it to exit.
func (f *Feed) Stop() {
	f.mu.Lock()
	cancel := f.cancel
	f.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	f.wg.Wait()
	f.logger.Info("feed-stopped")
}

func (f *Feed) run(ctx context.Context) {
	defer f.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := f.consume(ctx); err != nil && ctx.Err() == nil {
			f.logger.Warn("feed-disconnected", zap.Error(err))
			DisconnectsTotal.Inc()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(f.nextBackoff()):
		}
	}
}

// consume dials once and applies messages until the connection breaks.
func (f *Feed) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: f.config.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, f.config.URL, nil)
	if err != nil {
		ReconnectFailuresTotal.Inc()
		return err
	}
	defer conn.Close()

	f.resetBackoff()
	ConnectsTotal.Inc()
	f.logger.Info("feed-connected", zap.String("url", f.config.URL))

	// A missed pong leaves the read deadline in place and breaks the
	// connection, which triggers a reconnect.
	_ = conn.SetReadDeadline(time.Now().Add(f.config.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(f.config.PongTimeout))
	})

	// Unblock ReadMessage when the context is cancelled
	closeOnce := make(chan struct{})
	defer close(closeOnce)
	go func() {
		ticker := time.NewTicker(f.config.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-closeOnce:
				return
			case <-ticker.C:
				err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(f.config.PongTimeout))

		var msg updateMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			DecodeErrorsTotal.Inc()
			f.logger.Warn("feed-decode-failed", zap.Error(err))
			continue
		}
		f.apply(&msg)
	}
}

// apply converts the message to a pool snapshot and pushes it into the
// registry. Updates for untracked pools are dropped there.
func (f *Feed) apply(msg *updateMessage) {
	if msg.TokenX == "" || msg.TokenY == "" {
		DecodeErrorsTotal.Inc()
		return
	}

	pool := &types.Pool{
		Address: common.HexToAddress(msg.Address),
		TokenX: types.TokenInfo{
			Address:  common.HexToAddress(msg.TokenX),
			Symbol:   msg.SymbolX,
			Decimals: msg.DecimalsX,
		},
		TokenY: types.TokenInfo{
			Address:  common.HexToAddress(msg.TokenY),
			Symbol:   msg.SymbolY,
			Decimals: msg.DecimalsY,
		},
		ActiveBin: msg.ActiveBin,
		BinStep:   msg.BinStep,
		ReserveX:  msg.ReserveX,
		ReserveY:  msg.ReserveY,
		Volume24h: msg.Volume24h,
		FeeRate:   msg.FeeBPS / 10_000,
		UpdatedAt: time.Now(),
	}

	f.registry.ApplyUpdate(pool)
	UpdatesTotal.Inc()
}

func (f *Feed) nextBackoff() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	jitter := rand.Float64() * f.config.JitterPercent
	current := time.Duration(float64(f.backoff) * (1 + jitter))

	next := time.Duration(float64(f.backoff) * f.config.ReconnectBackoffMult)
	if next > f.config.ReconnectMaxDelay {
		next = f.config.ReconnectMaxDelay
	}
	f.backoff = next

	return current
}

func (f *Feed) resetBackoff() {
	f.mu.Lock()
	f.backoff = f.config.ReconnectInitialDelay
	f.mu.Unlock()
}
