// Package breaker guards auto-execution with a loss circuit breaker: a run
// of consecutive losing executions, or cumulative drawdown past the
// configured limit, halts new executions until the cooldown elapses.
package breaker

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the breaker position.
type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// Config holds breaker configuration.
type Config struct {
	MaxConsecutiveLosses int
	MaxDrawdownUSD       float64
	Cooldown             time.Duration
	Logger               *zap.Logger
}

// Breaker tracks a running loss streak and cumulative drawdown.
type Breaker struct {
	config  Config
	logger  *zap.Logger
	enabled atomic.Bool // Atomic for lock-free reads

	mu        sync.Mutex
	losses    int
	drawdown  float64
	tripped   bool
	trippedAt time.Time
}

// New creates a closed breaker.
func New(cfg Config) *Breaker {
	if cfg.MaxConsecutiveLosses <= 0 {
		cfg.MaxConsecutiveLosses = 3
	}
	if cfg.MaxDrawdownUSD <= 0 {
		cfg.MaxDrawdownUSD = 500
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	b := &Breaker{config: cfg, logger: cfg.Logger}

	// Start enabled by default
	b.enabled.Store(true)

	return b
}

// SetEnabled toggles the breaker. A disabled breaker always allows
// executions and ignores recorded outcomes.
func (b *Breaker) SetEnabled(enabled bool) {
	b.enabled.Store(enabled)
	if !enabled {
		b.logger.Warn("breaker-disabled")
	}
}

// Enabled reports whether the breaker is gating executions.
func (b *Breaker) Enabled() bool {
	return b.enabled.Load()
}

// Allowed reports whether new executions may proceed. An open breaker
// closes itself once the cooldown has elapsed.
func (b *Breaker) Allowed() bool {
	if !b.enabled.Load() {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.tripped {
		return true
	}
	if time.Since(b.trippedAt) >= b.config.Cooldown {
		b.resetLocked("cooldown-elapsed")
		return true
	}
	return false
}

// State returns the current breaker position.
func (b *Breaker) State() State {
	if b.Allowed() {
		return StateClosed
	}
	return StateOpen
}

// RecordResult feeds one successful execution's realized profit into the
// breaker. Profit resets the loss streak; a realized loss accumulates
// toward both trip conditions.
func (b *Breaker) RecordResult(profitUSD float64) {
	if !b.enabled.Load() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if profitUSD >= 0 {
		b.losses = 0
		b.drawdown = 0
		return
	}

	b.recordLossLocked(-profitUSD)
}

// RecordFailure counts one failed execution as a loss. lossUSD is the sunk
// cost of the attempt; zero still advances the loss streak.
func (b *Breaker) RecordFailure(lossUSD float64) {
	if !b.enabled.Load() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if lossUSD < 0 {
		lossUSD = -lossUSD
	}
	b.recordLossLocked(lossUSD)
}

func (b *Breaker) recordLossLocked(lossUSD float64) {
	b.losses++
	b.drawdown += lossUSD

	if b.losses >= b.config.MaxConsecutiveLosses {
		b.tripLocked("consecutive-losses")
		return
	}
	if b.drawdown >= b.config.MaxDrawdownUSD {
		b.tripLocked("max-drawdown")
	}
}

// Trip forces the breaker open.
func (b *Breaker) Trip(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tripLocked(reason)
}

// Reset forces the breaker closed and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetLocked("manual-reset")
}

func (b *Breaker) tripLocked(reason string) {
	if b.tripped {
		return
	}
	b.tripped = true
	b.trippedAt = time.Now()

	TrippedTotal.WithLabelValues(reason).Inc()
	StateGauge.Set(1)
	b.logger.Warn("breaker-tripped",
		zap.String("reason", reason),
		zap.Int("consecutive-losses", b.losses),
		zap.Float64("drawdown-usd", b.drawdown),
		zap.Duration("cooldown", b.config.Cooldown))
}

func (b *Breaker) resetLocked(reason string) {
	b.tripped = false
	b.losses = 0
	b.drawdown = 0

	StateGauge.Set(0)
	b.logger.Info("breaker-reset", zap.String("reason", reason))
}
