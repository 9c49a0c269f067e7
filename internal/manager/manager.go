// Package manager is the orchestration facade: it owns one detector, one
// calculator, one planner and a loss breaker, applies policy gates, and is
// the only component the rest of the application talks to.
package manager

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nmoreno/poolarb/internal/breaker"
	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/internal/planner"
	"github.com/nmoreno/poolarb/internal/profitability"
	"github.com/nmoreno/poolarb/internal/registry"
	"github.com/nmoreno/poolarb/internal/storage"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

// Config holds manager configuration.
type Config struct {
	AutoExecute          bool
	AutoExecuteMinProfit float64
	AutoExecuteRisk      types.RiskLevel
	Logger               *zap.Logger
}

// Stats aggregates detector and planner statistics with the manager's own
// execution counters.
type Stats struct {
	Detector             detector.Stats     `json:"detector"`
	Planner              planner.Statistics `json:"planner"`
	TotalExecutions      uint64             `json:"total_executions"`
	SuccessfulExecutions uint64             `json:"successful_executions"`
	TotalProfitRealized  float64            `json:"total_profit_realized"`
	AutoExecuteEnabled   bool               `json:"auto_execute_enabled"`
	IsSystemActive       bool               `json:"is_system_active"`
}

// Health summarizes component status for the health endpoint.
type Health struct {
	MonitoredPools     int            `json:"monitored_pools"`
	DetectorState      detector.State `json:"detector_state"`
	ActivePlans        int            `json:"active_plans"`
	BreakerState       breaker.State  `json:"breaker_state"`
	AutoExecuteEnabled bool           `json:"auto_execute_enabled"`
}

// Manager is the arbitrage system facade.
type Manager struct {
	config     Config
	logger     *zap.Logger
	registry   *registry.Registry
	detector   *detector.Detector
	calculator *profitability.Calculator
	planner    *planner.Planner
	breaker    *breaker.Breaker
	store      storage.Storage

	mu                   sync.Mutex
	autoExecute          bool
	totalExecutions      uint64
	successfulExecutions uint64
	totalProfitRealized  float64

	stop chan struct{}
	wg   sync.WaitGroup
}

// New wires the manager over its components. store may be nil to disable
// persistence.
func New(cfg Config, reg *registry.Registry, det *detector.Detector, calc *profitability.Calculator, plan *planner.Planner, brk *breaker.Breaker, store storage.Storage) *Manager {
	return &Manager{
		config:      cfg,
		logger:      cfg.Logger,
		registry:    reg,
		detector:    det,
		calculator:  calc,
		planner:     plan,
		breaker:     brk,
		store:       store,
		autoExecute: cfg.AutoExecute,
	}
}

// Start brings the system up: detector monitoring plus the auto-execution
// loop. Lifecycle controls never return errors; per-opportunity failures
// are logged inside the loop.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		m.logger.Debug("manager-already-started")
		return
	}
	m.stop = make(chan struct{})
	stop := m.stop
	m.mu.Unlock()

	m.detector.Start(ctx)

	m.wg.Add(1)
	go m.autoExecLoop(ctx, stop)

	m.logger.Info("arbitrage-system-started",
		zap.Bool("auto-execute", m.AutoExecuteEnabled()),
		zap.Float64("auto-execute-min-profit", m.config.AutoExecuteMinProfit),
		zap.String("auto-execute-risk-tolerance", string(m.config.AutoExecuteRisk)))
}

// Stop shuts the system down. Safe to call when not started.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stop == nil {
		m.mu.Unlock()
		return
	}
	close(m.stop)
	m.stop = nil
	m.mu.Unlock()

	m.detector.Stop()
	m.wg.Wait()
	m.logger.Info("arbitrage-system-stopped")
}

// AddPool starts monitoring a pool.
func (m *Manager) AddPool(ctx context.Context, address common.Address) (*types.Pool, error) {
	return m.registry.AddPool(ctx, address)
}

// RemovePool stops monitoring a pool. Opportunities referencing it are
// cascaded away by the registry's removal hook.
func (m *Manager) RemovePool(address common.Address) {
	m.registry.RemovePool(address)
}

// Scan runs a single detection pass over the monitored pools. The
// background scan loop does this on an interval; one-shot callers can
// use it directly.
func (m *Manager) Scan(ctx context.Context) {
	m.detector.Scan(ctx)
}

// ActiveOpportunities returns the live opportunity set sorted by
// descending net profit.
func (m *Manager) ActiveOpportunities() []*detector.Opportunity {
	return m.detector.ActiveOpportunities()
}

// BestOpportunityForAmount delegates to the detector.
func (m *Manager) BestOpportunityForAmount(token common.Address, amount float64) (*detector.Opportunity, error) {
	return m.detector.BestOpportunityForAmount(token, amount)
}

// AnalyzeOpportunity produces a detailed profitability analysis. Errors
// propagate to the caller.
func (m *Manager) AnalyzeOpportunity(opp *detector.Opportunity, amount float64, conditions *profitability.MarketConditions) (*profitability.Analysis, error) {
	return m.calculator.CalculateDetailed(opp, amount, conditions)
}

// CreateExecutionPlan analyzes an active opportunity and synthesizes a
// plan for it. The opportunity must still be live in the detector.
func (m *Manager) CreateExecutionPlan(opportunityID string, amount float64, prefs planner.Preferences) (*planner.ExecutionPlan, error) {
	opp, ok := m.detector.Get(opportunityID)
	if !ok {
		return nil, types.ErrNoOpportunity
	}

	analysis, err := m.calculator.CalculateDetailed(opp, amount, nil)
	if err != nil {
		return nil, err
	}
	return m.planner.CreatePlan(opp, analysis, prefs)
}

// ExecutePlan runs a stored plan by id. Errors propagate to the caller.
func (m *Manager) ExecutePlan(ctx context.Context, planID string) (*planner.ExecutionResult, error) {
	result, err := m.planner.ExecutePlan(ctx, planID)
	m.recordOutcome(planID, result, err)
	return result, err
}

// CancelPlan cancels a plan by id with a reason. Never errors.
func (m *Manager) CancelPlan(planID, reason string) {
	m.planner.CancelPlan(planID, reason)
}

// ExecuteArbitrage runs the full pipeline for one opportunity: detailed
// analysis, plan synthesis, then execution. Counters advance only on a
// successful result.
func (m *Manager) ExecuteArbitrage(ctx context.Context, opp *detector.Opportunity, amount float64) (*planner.ExecutionResult, error) {
	analysis, err := m.calculator.CalculateDetailed(opp, amount, nil)
	if err != nil {
		return nil, err
	}

	plan, err := m.planner.CreatePlan(opp, analysis, planner.Preferences{})
	if err != nil {
		return nil, err
	}

	result, err := m.planner.ExecutePlan(ctx, plan.ID)
	m.recordOutcome(plan.ID, result, err)
	return result, err
}

func (m *Manager) recordOutcome(planID string, result *planner.ExecutionResult, err error) {
	// Admission failures never reached execution and do not count.
	if err != nil && result == nil {
		return
	}

	m.mu.Lock()
	m.totalExecutions++
	if result != nil && result.Success {
		m.successfulExecutions++
		m.totalProfitRealized += result.ActualProfit
	}
	m.mu.Unlock()

	if result != nil {
		if result.Success {
			m.breaker.RecordResult(result.ActualProfit)
		} else {
			m.breaker.RecordFailure(result.ResourceCostUSD)
		}
		if m.store != nil {
			if storeErr := m.store.StoreResult(context.Background(), planID, result); storeErr != nil {
				m.logger.Warn("result-store-failed",
					zap.String("plan-id", planID),
					zap.Error(storeErr))
			}
		}
	}
}

// SetAutoExecute toggles automatic execution of detected opportunities.
func (m *Manager) SetAutoExecute(enabled bool) {
	m.mu.Lock()
	m.autoExecute = enabled
	m.mu.Unlock()
	m.logger.Info("auto-execute-toggled", zap.Bool("enabled", enabled))
}

// AutoExecuteEnabled reports the auto-execution toggle.
func (m *Manager) AutoExecuteEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoExecute
}

// Stats aggregates statistics across components.
func (m *Manager) Stats() Stats {
	det := m.detector.Stats()

	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Detector:             det,
		Planner:              m.planner.Stats(),
		TotalExecutions:      m.totalExecutions,
		SuccessfulExecutions: m.successfulExecutions,
		TotalProfitRealized:  m.totalProfitRealized,
		AutoExecuteEnabled:   m.autoExecute,
		IsSystemActive:       det.State == detector.StateMonitoring,
	}
}

// SystemHealth summarizes component status.
func (m *Manager) SystemHealth() Health {
	return Health{
		MonitoredPools:     m.registry.Len(),
		DetectorState:      m.detector.State(),
		ActivePlans:        m.planner.Stats().ActivePlans,
		BreakerState:       m.breaker.State(),
		AutoExecuteEnabled: m.AutoExecuteEnabled(),
	}
}

// autoExecLoop consumes newly detected opportunities and triggers the full
// execution pipeline for those passing the policy gate. Failures are
// logged per opportunity and never stop the loop.
func (m *Manager) autoExecLoop(ctx context.Context, stop chan struct{}) {
	defer m.wg.Done()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case opp := <-m.detector.OpportunityChan():
			if m.store != nil {
				if err := m.store.StoreOpportunity(ctx, opp); err != nil {
					m.logger.Warn("opportunity-store-failed",
						zap.String("opportunity-id", opp.ID),
						zap.Error(err))
				}
			}

			if !m.shouldAutoExecute(opp) {
				continue
			}

			if _, err := m.ExecuteArbitrage(ctx, opp, opp.InputAmount()); err != nil {
				AutoExecErrorsTotal.Inc()
				m.logger.Error("auto-execution-failed",
					zap.String("opportunity-id", opp.ID),
					zap.Error(err))
				continue
			}
			AutoExecutionsTotal.Inc()
		}
	}
}

// shouldAutoExecute applies the policy gate: toggle on, profit above the
// configured floor, risk label at or below the tolerance, breaker closed.
func (m *Manager) shouldAutoExecute(opp *detector.Opportunity) bool {
	if !m.AutoExecuteEnabled() {
		return false
	}
	if opp.Profit.NetProfit <= m.config.AutoExecuteMinProfit {
		return false
	}
	if opp.Risk.Overall.Rank() > m.config.AutoExecuteRisk.Rank() {
		m.logger.Debug("auto-execute-risk-gate",
			zap.String("opportunity-id", opp.ID),
			zap.String("risk", string(opp.Risk.Overall)),
			zap.String("tolerance", string(m.config.AutoExecuteRisk)))
		return false
	}
	if !m.breaker.Allowed() {
		m.logger.Warn("auto-execute-breaker-open",
			zap.String("opportunity-id", opp.ID))
		return false
	}
	return true
}
