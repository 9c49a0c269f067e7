// Package detector scans the pool registry for candidate arbitrage cycles,
// scores them, and maintains the live set of active opportunities.
package detector

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nmoreno/poolarb/internal/registry"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

// State is the detector's lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateMonitoring State = "monitoring"
)

// Config holds detector configuration.
type Config struct {
	ScanInterval    time.Duration
	MinProfitUSD    float64
	MaxRiskScore    float64
	StalenessWindow time.Duration
	Logger          *zap.Logger
}

// Stats summarizes detector activity.
type Stats struct {
	State               State     `json:"state"`
	ActiveOpportunities int       `json:"active_opportunities"`
	ScansCompleted      uint64    `json:"scans_completed"`
	LastScanAt          time.Time `json:"last_scan_at"`
}

// Detector owns the active opportunity set. All mutation goes through its
// methods; the scan loop is the single producer.
type Detector struct {
	registry *registry.Registry
	config   Config
	logger   *zap.Logger

	mu       sync.Mutex
	state    State
	active   map[string]*Opportunity
	scans    uint64
	lastScan time.Time
	stop     chan struct{}

	oppChan chan *Opportunity
	wg      sync.WaitGroup
}

// New creates an opportunity detector over the given registry. The
// registry's pool removals cascade into the active set.
func New(cfg Config, reg *registry.Registry) *Detector {
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 5 * time.Second
	}
	if cfg.StalenessWindow <= 0 {
		cfg.StalenessWindow = 30 * time.Second
	}

	d := &Detector{
		registry: reg,
		config:   cfg,
		logger:   cfg.Logger,
		state:    StateIdle,
		active:   make(map[string]*Opportunity),
		oppChan:  make(chan *Opportunity, 50),
	}

	reg.OnRemove(d.RemoveForPool)
	return d
}

// State returns the current lifecycle state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start moves the detector to monitoring and launches the scan loop.
// A second Start while monitoring is a logged no-op.
func (d *Detector) Start(ctx context.Context) {
	d.mu.Lock()
	if d.state == StateMonitoring {
		d.mu.Unlock()
		d.logger.Debug("detector-already-monitoring")
		return
	}
	d.state = StateMonitoring
	d.stop = make(chan struct{})
	stop := d.stop
	d.mu.Unlock()

	d.logger.Info("detector-starting",
		zap.Duration("scan-interval", d.config.ScanInterval),
		zap.Float64("min-profit-usd", d.config.MinProfitUSD),
		zap.Float64("max-risk-score", d.config.MaxRiskScore))

	d.wg.Add(1)
	go d.scanLoop(ctx, stop)
}

// Stop moves the detector back to idle and waits for the loop to exit.
func (d *Detector) Stop() {
	d.mu.Lock()
	if d.state != StateMonitoring {
		d.mu.Unlock()
		return
	}
	d.state = StateIdle
	close(d.stop)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("detector-stopped")
}

func (d *Detector) scanLoop(ctx context.Context, stop chan struct{}) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.state = StateIdle
			d.mu.Unlock()
			return
		case <-stop:
			return
		case <-ticker.C:
			d.safeScan(ctx)
		}
	}
}

// safeScan runs one scan cycle; a panic or error is logged and never
// stops the timer.
func (d *Detector) safeScan(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("scan-cycle-panic", zap.Any("panic", r))
		}
	}()

	d.Scan(ctx)
}

// Scan runs a single scan cycle: refresh pools, run all pattern matchers,
// score, filter, and insert survivors into the active set. A cycle with
// fewer than two tracked pools is a no-op.
func (d *Detector) Scan(ctx context.Context) {
	if d.registry.Len() < 2 {
		return
	}

	start := time.Now()
	d.registry.RefreshAll(ctx)
	pools := d.registry.Pools()

	candidates := matchDirect(pools)
	candidates = append(candidates, matchTriangular(pools)...)
	candidates = append(candidates, matchMultiHop(pools)...)

	inserted := 0
	for _, opp := range candidates {
		if opp.Profit.NetProfit < d.config.MinProfitUSD {
			RejectedTotal.WithLabelValues("below_min_profit").Inc()
			continue
		}
		if opp.Risk.Mean() > d.config.MaxRiskScore {
			RejectedTotal.WithLabelValues("above_max_risk").Inc()
			continue
		}

		d.mu.Lock()
		d.active[opp.ID] = opp
		d.mu.Unlock()
		inserted++

		DetectedTotal.WithLabelValues(string(opp.Type)).Inc()
		NetProfitUSD.Observe(opp.Profit.NetProfit)

		// Non-blocking: auto-execution consumers may lag
		select {
		case d.oppChan <- opp:
		default:
			d.logger.Warn("opportunity-channel-full", zap.String("opportunity-id", opp.ID))
		}

		d.logger.Info("opportunity-detected",
			zap.String("opportunity-id", opp.ID),
			zap.String("type", string(opp.Type)),
			zap.Float64("net-profit-usd", opp.Profit.NetProfit),
			zap.Float64("mean-risk", opp.Risk.Mean()),
			zap.Float64("confidence", opp.Confidence))
	}

	d.mu.Lock()
	d.scans++
	d.lastScan = time.Now()
	d.mu.Unlock()

	ScanDurationSeconds.Observe(time.Since(start).Seconds())
	d.logger.Debug("scan-cycle-complete",
		zap.Int("pools", len(pools)),
		zap.Int("candidates", len(candidates)),
		zap.Int("inserted", inserted))
}

// ActiveOpportunities evicts stale entries and returns the remainder
// sorted by descending net profit.
func (d *Detector) ActiveOpportunities() []*Opportunity {
	d.mu.Lock()
	for id, opp := range d.active {
		if opp.Age() > d.config.StalenessWindow {
			delete(d.active, id)
			ExpiredTotal.Inc()
		}
	}

	out := make([]*Opportunity, 0, len(d.active))
	for _, opp := range d.active {
		out = append(out, opp)
	}
	d.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Profit.NetProfit > out[j].Profit.NetProfit
	})
	return out
}

// Get returns an active opportunity by id if it is still live.
func (d *Detector) Get(id string) (*Opportunity, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	opp, ok := d.active[id]
	if !ok || opp.Age() > d.config.StalenessWindow {
		return nil, false
	}
	return opp, true
}

// BestOpportunityForAmount filters active opportunities to those for the
// given input token whose breakeven <= amount <= max profitable amount,
// ranks by risk-adjusted return, and returns the top one.
// Returns types.ErrNoOpportunity when nothing qualifies.
func (d *Detector) BestOpportunityForAmount(token common.Address, amount float64) (*Opportunity, error) {
	var best *Opportunity

	for _, opp := range d.ActiveOpportunities() {
		if opp.InputToken.Address != token {
			continue
		}
		if amount < opp.Profit.BreakevenAmount || amount > opp.Profit.MaxProfitableAmount {
			continue
		}
		if best == nil || opp.RiskAdjustedReturn() > best.RiskAdjustedReturn() {
			best = opp
		}
	}

	if best == nil {
		return nil, types.ErrNoOpportunity
	}
	return best, nil
}

// RemoveForPool cascades pool removal: every opportunity referencing the
// pool is evicted.
func (d *Detector) RemoveForPool(pool common.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, opp := range d.active {
		if opp.References(pool) {
			delete(d.active, id)
		}
	}
}

// OpportunityChan returns the channel of newly detected opportunities.
func (d *Detector) OpportunityChan() <-chan *Opportunity {
	return d.oppChan
}

// Stats returns a snapshot of detector activity.
func (d *Detector) Stats() Stats {
	active := len(d.ActiveOpportunities())

	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		State:               d.state,
		ActiveOpportunities: active,
		ScansCompleted:      d.scans,
		LastScanAt:          d.lastScan,
	}
}
