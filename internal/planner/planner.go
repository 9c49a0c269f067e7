// Package planner synthesizes execution plans for detected opportunities
// and carries them out under a global concurrency cap. The planner owns the
// active-plan table; all mutation goes through its methods.
package planner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/internal/profitability"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

const (
	defaultMaxConcurrent = 3
	defaultStepTimeout   = 30 * time.Second
	defaultCapitalUSD    = 10_000

	// Plans with more profit than this are bundled for private submission.
	bundleProfitThresholdUSD = 100

	sandwichImpactThreshold = 0.02
	stopLossTimeLimitMs     = 60_000
)

// Config holds planner configuration.
type Config struct {
	MaxConcurrent int
	StepTimeout   time.Duration
	CapitalUSD    float64
	Logger        *zap.Logger
}

// Statistics summarizes planner activity.
type Statistics struct {
	TotalPlans       uint64  `json:"total_plans"`
	ActivePlans      int     `json:"active_plans"`
	Executing        int     `json:"executing"`
	Completed        uint64  `json:"completed"`
	Failed           uint64  `json:"failed"`
	Cancelled        uint64  `json:"cancelled"`
	SuccessRate      float64 `json:"success_rate"`
	TotalProfitUSD   float64 `json:"total_profit_usd"`
	AverageProfitUSD float64 `json:"average_profit_usd"`
}

// Planner owns the active-plan table and the execution admission counter.
type Planner struct {
	config   Config
	logger   *zap.Logger
	executor StepExecutor

	mu        sync.Mutex
	plans     map[string]*ExecutionPlan
	events    map[string]chan ProgressEvent
	cancels   map[string]context.CancelFunc
	executing int

	totalPlans  uint64
	completed   uint64
	failed      uint64
	cancelled   uint64
	totalProfit float64
}

// New creates a planner. A nil executor defaults to the paper simulator.
func New(cfg Config, executor StepExecutor) *Planner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = defaultStepTimeout
	}
	if cfg.CapitalUSD <= 0 {
		cfg.CapitalUSD = defaultCapitalUSD
	}
	if executor == nil {
		executor = NewPaperExecutor(time.Now().UnixNano())
	}

	return &Planner{
		config:   cfg,
		logger:   cfg.Logger,
		executor: executor,
		plans:    make(map[string]*ExecutionPlan),
		events:   make(map[string]chan ProgressEvent),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// CreatePlan synthesizes a full execution plan for the opportunity and
// stores it with status planned.
func (p *Planner) CreatePlan(opp *detector.Opportunity, analysis *profitability.Analysis, prefs Preferences) (*ExecutionPlan, error) {
	if opp == nil || len(opp.Steps) == 0 {
		return nil, &types.CalculationError{Reason: "cannot plan an opportunity without steps"}
	}
	if analysis == nil {
		return nil, &types.CalculationError{OpportunityID: opp.ID, Reason: "plan requires a profitability analysis"}
	}

	now := time.Now()
	plan := &ExecutionPlan{
		ID:             uuid.New().String(),
		OpportunityID:  opp.ID,
		Opportunity:    opp,
		Analysis:       analysis,
		Strategy:       selectStrategy(opp, prefs),
		Protective:     buildProtectiveTiming(analysis.Base.NetProfit),
		Contingencies:  buildContingencies(),
		RiskManagement: p.buildRiskManagement(analysis),
		Timing:         buildTiming(opp, now),
		Monitoring:     buildMonitoring(analysis.Base.NetProfit),
		Status:         StatusPlanned,
		CreatedAt:      now,
	}

	p.mu.Lock()
	p.plans[plan.ID] = plan
	p.events[plan.ID] = make(chan ProgressEvent, 32)
	p.totalPlans++
	active := len(p.plans)
	p.mu.Unlock()

	PlansCreatedTotal.WithLabelValues(string(plan.Strategy.Type)).Inc()
	ActivePlans.Set(float64(active))
	p.logger.Info("plan-created",
		zap.String("plan-id", plan.ID),
		zap.String("opportunity-id", opp.ID),
		zap.String("strategy", string(plan.Strategy.Type)),
		zap.Float64("expected-net-profit", analysis.Base.NetProfit))

	return plan, nil
}

// Get returns the plan by id.
func (p *Planner) Get(planID string) (*ExecutionPlan, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	plan, ok := p.plans[planID]
	return plan, ok
}

// Events returns the progress-event stream for a plan. The channel is
// closed once the plan reaches a terminal state or is cancelled.
func (p *Planner) Events(planID string) (<-chan ProgressEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, ok := p.events[planID]
	return ch, ok
}

// CancelPlan removes a plan. An executing plan gets an emergency stop
// before removal; an unknown id is a logged no-op.
func (p *Planner) CancelPlan(planID, reason string) {
	p.mu.Lock()
	plan, ok := p.plans[planID]
	if !ok {
		p.mu.Unlock()
		p.logger.Warn("cancel-unknown-plan", zap.String("plan-id", planID), zap.String("reason", reason))
		return
	}

	status := plan.Status
	cancel := p.cancels[planID]
	delete(p.plans, planID)
	delete(p.cancels, planID)
	if ch, ok := p.events[planID]; ok {
		close(ch)
		delete(p.events, planID)
	}
	p.cancelled++
	active := len(p.plans)
	p.mu.Unlock()

	if status == StatusExecuting && cancel != nil {
		p.logger.Warn("emergency-stop",
			zap.String("plan-id", planID),
			zap.String("reason", reason))
		cancel()
	}

	PlansCancelledTotal.Inc()
	ActivePlans.Set(float64(active))
	p.logger.Info("plan-cancelled",
		zap.String("plan-id", planID),
		zap.String("status", string(status)),
		zap.String("reason", reason))
}

// Stats returns a snapshot of planner activity.
func (p *Planner) Stats() Statistics {
	p.mu.Lock()
	defer p.mu.Unlock()

	terminal := p.completed + p.failed
	rate := 0.0
	if terminal > 0 {
		rate = float64(p.completed) / float64(terminal)
	}
	avg := 0.0
	if p.completed > 0 {
		avg = p.totalProfit / float64(p.completed)
	}

	return Statistics{
		TotalPlans:       p.totalPlans,
		ActivePlans:      len(p.plans),
		Executing:        p.executing,
		Completed:        p.completed,
		Failed:           p.failed,
		Cancelled:        p.cancelled,
		SuccessRate:      rate,
		TotalProfitUSD:   p.totalProfit,
		AverageProfitUSD: avg,
	}
}

// selectStrategy picks the ordering discipline. Atomic for single-step
// plans, parallel only when allowed and the dependency graph has no edges,
// batched above five steps, sequential otherwise.
func selectStrategy(opp *detector.Opportunity, prefs Preferences) ExecutionStrategy {
	kind := StrategySequential
	switch {
	case len(opp.Steps) == 1:
		kind = StrategyAtomic
	case prefs.AllowParallel && !hasDependencies(opp.Steps):
		kind = StrategyParallel
	case len(opp.Steps) > 5:
		kind = StrategyBatched
	}

	baseSlippage := 0.001
	maxSlippage := prefs.MaxSlippage
	if maxSlippage <= baseSlippage {
		maxSlippage = baseSlippage * 5
	}

	return ExecutionStrategy{
		Type: kind,
		Gas: GasOptimization{
			ExpectedSavingsUSD: 0.1 * float64(len(opp.Steps)),
			UsePriorityFees:    true,
		},
		Slippage: SlippagePolicy{
			BaseSlippage: baseSlippage,
			MaxSlippage:  maxSlippage,
		},
	}
}

func hasDependencies(steps []detector.ExecutionStep) bool {
	for _, s := range steps {
		if len(s.DependsOn) > 0 {
			return true
		}
	}
	return false
}

// buildProtectiveTiming assembles the anti-MEV posture. Timing
// randomization is always on; private submission and bundling engage once
// the expected profit is large enough to attract searchers.
func buildProtectiveTiming(expectedNetProfit float64) ProtectiveTimingPlan {
	bundle := expectedNetProfit > bundleProfitThresholdUSD
	strategies := []string{"timing-randomization"}
	if bundle {
		strategies = append(strategies, "private-submission")
	}

	return ProtectiveTimingPlan{
		Strategies: strategies,
		Jitter: JitterConfig{
			MinDelayMs: 10,
			MaxDelayMs: 150,
			Pattern:    "uniform",
		},
		FrontRun: FrontRunProtection{
			Enabled:           true,
			PrivateSubmission: bundle,
		},
		Sandwich: SandwichProtection{
			Enabled:              true,
			PriceImpactThreshold: sandwichImpactThreshold,
			EmergencyExit:        true,
		},
		BundleSteps: bundle,
		Failsafes:   []string{"abort-on-stale-quote", "revert-on-partial-fill"},
	}
}

func buildContingencies() []ContingencyPlan {
	return []ContingencyPlan{
		{
			Trigger:  "adverse-price-movement",
			Response: "modify",
			Fallbacks: []FallbackOption{
				{Description: "resize to half the planned amount", CostImpactUSD: 0.5, SuccessProbability: 0.8},
				{Description: "abort and release capital", CostImpactUSD: 2.0, SuccessProbability: 0.99},
			},
		},
		{
			Trigger:  "competition-detected",
			Response: "delay",
			Delay:    250 * time.Millisecond,
			Fallbacks: []FallbackOption{
				{Description: "raise priority fee one tier", CostImpactUSD: 0.3, SuccessProbability: 0.7},
				{Description: "abort and wait for the next scan", CostImpactUSD: 0.0, SuccessProbability: 0.95},
			},
		},
	}
}

// buildRiskManagement derives downside bounds from the analysis. Position
// sizing follows a Kelly-style fraction of the probability of profit,
// clamped to [1%, 10%] of capital.
func (p *Planner) buildRiskManagement(analysis *profitability.Analysis) RiskManagementPlan {
	kelly := 2*analysis.Ratios.ProbabilityOfProfit - 1
	if kelly < 0.01 {
		kelly = 0.01
	}
	if kelly > 0.10 {
		kelly = 0.10
	}

	maxLoss := -analysis.Base.EstimatedCostUSD * 5
	if maxLoss >= 0 {
		maxLoss = -1
	}

	return RiskManagementPlan{
		MaxLossUSD: maxLoss,
		StopLosses: []StopLossCondition{
			{Kind: StopLossAbsolute, Threshold: maxLoss, Action: "immediate-exit"},
			{Kind: StopLossPercentage, Threshold: -0.02, Action: "unwind"},
			{Kind: StopLossTimeBased, Threshold: stopLossTimeLimitMs, Action: "abort"},
		},
		Sizing: PositionSizingRule{
			Method:         "kelly",
			Fraction:       kelly,
			MaxNotionalUSD: kelly * p.config.CapitalUSD,
		},
		MaxPerOpportunity: 0.05,
		MaxPerPool:        0.20,
	}
}

// buildTiming derives the execution window from the opportunity's
// remaining freshness.
func buildTiming(opp *detector.Opportunity, now time.Time) TimingPlan {
	end := opp.DetectedAt.Add(30 * time.Second)
	if end.Before(now) {
		end = now
	}

	return TimingPlan{
		WindowStart:       now,
		WindowEnd:         end,
		CompetitionLevel:  types.RiskLevelFromScore(opp.Risk.Competition),
		MonitoringEnabled: true,
		LearningRate:      0.1,
		LookbackWindow:    24 * time.Hour,
	}
}

func buildMonitoring(expectedNetProfit float64) MonitoringPlan {
	return MonitoringPlan{
		RealTime: true,
		Callbacks: []LifecycleEvent{
			EventStepStarted,
			EventStepCompleted,
			EventStepFailed,
			EventOpportunityExpired,
			EventProfitRealized,
		},
		Metrics: []PerformanceMetric{
			{Name: "realized_profit_usd", Target: expectedNetProfit, Tolerance: expectedNetProfit * 0.25, Critical: true},
			{Name: "slippage", Target: 0.001, Tolerance: 0.004, Critical: true},
			{Name: "execution_time_ms", Target: 2000, Tolerance: 3000, Critical: false},
		},
	}
}

// publish emits a progress event on the plan's stream without blocking.
func (p *Planner) publish(planID string, event LifecycleEvent, stepIndex int, detail string) {
	p.mu.Lock()
	ch, ok := p.events[planID]
	p.mu.Unlock()
	if !ok {
		return
	}

	select {
	case ch <- ProgressEvent{
		PlanID:    planID,
		Event:     event,
		StepIndex: stepIndex,
		Detail:    detail,
		At:        time.Now(),
	}:
	default:
		p.logger.Warn("event-stream-full",
			zap.String("plan-id", planID),
			zap.String("event", string(event)))
	}
}

func (p *Planner) closeEvents(planID string) {
	p.mu.Lock()
	if ch, ok := p.events[planID]; ok {
		close(ch)
		delete(p.events, planID)
	}
	p.mu.Unlock()
}
