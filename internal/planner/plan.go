package planner

import (
	"time"

	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/internal/profitability"
	"github.com/nmoreno/poolarb/pkg/types"
)

// PlanStatus is the lifecycle state of an execution plan.
type PlanStatus string

const (
	StatusPlanned   PlanStatus = "planned"
	StatusExecuting PlanStatus = "executing"
	StatusCompleted PlanStatus = "completed"
	StatusFailed    PlanStatus = "failed"
)

// StrategyType selects the step ordering discipline.
type StrategyType string

const (
	StrategyAtomic     StrategyType = "atomic"
	StrategyParallel   StrategyType = "parallel"
	StrategyBatched    StrategyType = "batched"
	StrategySequential StrategyType = "sequential"
)

// GasOptimization is the gas policy attached to a strategy.
type GasOptimization struct {
	ExpectedSavingsUSD float64 `json:"expected_savings_usd"`
	UsePriorityFees    bool    `json:"use_priority_fees"`
}

// SlippagePolicy bounds acceptable slippage during execution.
type SlippagePolicy struct {
	BaseSlippage float64 `json:"base_slippage"`
	MaxSlippage  float64 `json:"max_slippage"`
}

// ExecutionStrategy is the chosen ordering type plus its gas and slippage
// directives.
type ExecutionStrategy struct {
	Type     StrategyType    `json:"type"`
	Gas      GasOptimization `json:"gas"`
	Slippage SlippagePolicy  `json:"slippage"`
}

// JitterConfig randomizes submission timing to defeat deterministic
// front-running bots.
type JitterConfig struct {
	MinDelayMs int    `json:"min_delay_ms"`
	MaxDelayMs int    `json:"max_delay_ms"`
	Pattern    string `json:"pattern"`
}

// FrontRunProtection configures defenses against transaction front-running.
type FrontRunProtection struct {
	Enabled           bool `json:"enabled"`
	PrivateSubmission bool `json:"private_submission"`
}

// SandwichProtection configures sandwich-attack detection and response.
type SandwichProtection struct {
	Enabled              bool    `json:"enabled"`
	PriceImpactThreshold float64 `json:"price_impact_threshold"`
	EmergencyExit        bool    `json:"emergency_exit"`
}

// ProtectiveTimingPlan is the anti-MEV posture of a plan.
type ProtectiveTimingPlan struct {
	Strategies  []string           `json:"strategies"`
	Jitter      JitterConfig       `json:"jitter"`
	FrontRun    FrontRunProtection `json:"front_run"`
	Sandwich    SandwichProtection `json:"sandwich"`
	BundleSteps bool               `json:"bundle_steps"`
	Failsafes   []string           `json:"failsafes"`
}

// FallbackOption is one ranked alternative inside a contingency plan.
type FallbackOption struct {
	Description        string  `json:"description"`
	CostImpactUSD      float64 `json:"cost_impact_usd"`
	SuccessProbability float64 `json:"success_probability"`
}

// ContingencyPlan maps a trigger condition to a prepared response.
type ContingencyPlan struct {
	Trigger   string           `json:"trigger"`
	Response  string           `json:"response"`
	Delay     time.Duration    `json:"delay"`
	Fallbacks []FallbackOption `json:"fallbacks"`
}

// StopLossKind discriminates stop-loss conditions.
type StopLossKind string

const (
	StopLossAbsolute   StopLossKind = "absolute"
	StopLossPercentage StopLossKind = "percentage"
	StopLossTimeBased  StopLossKind = "time_based"
)

// StopLossCondition is one exit rule of the risk management plan.
type StopLossCondition struct {
	Kind      StopLossKind `json:"kind"`
	Threshold float64      `json:"threshold"`
	Action    string       `json:"action"`
}

// PositionSizingRule sizes the trade as a fraction of capital.
type PositionSizingRule struct {
	Method         string  `json:"method"`
	Fraction       float64 `json:"fraction"`
	MaxNotionalUSD float64 `json:"max_notional_usd"`
}

// RiskManagementPlan bounds the downside of one execution.
type RiskManagementPlan struct {
	MaxLossUSD        float64             `json:"max_loss_usd"`
	StopLosses        []StopLossCondition `json:"stop_losses"`
	Sizing            PositionSizingRule  `json:"sizing"`
	MaxPerOpportunity float64             `json:"max_per_opportunity"`
	MaxPerPool        float64             `json:"max_per_pool"`
}

// TimingPlan is the execution window and competition posture.
type TimingPlan struct {
	WindowStart       time.Time       `json:"window_start"`
	WindowEnd         time.Time       `json:"window_end"`
	CompetitionLevel  types.RiskLevel `json:"competition_level"`
	MonitoringEnabled bool            `json:"monitoring_enabled"`
	LearningRate      float64         `json:"learning_rate"`
	LookbackWindow    time.Duration   `json:"lookback_window"`
}

// LifecycleEvent names a progress-event kind.
type LifecycleEvent string

const (
	EventStepStarted        LifecycleEvent = "step_started"
	EventStepCompleted      LifecycleEvent = "step_completed"
	EventStepFailed         LifecycleEvent = "step_failed"
	EventOpportunityExpired LifecycleEvent = "opportunity_expired"
	EventProfitRealized     LifecycleEvent = "profit_realized"
)

// PerformanceMetric is one tracked figure with alerting bounds.
type PerformanceMetric struct {
	Name      string  `json:"name"`
	Target    float64 `json:"target"`
	Tolerance float64 `json:"tolerance"`
	Critical  bool    `json:"critical"`
}

// MonitoringPlan configures progress reporting for a plan.
type MonitoringPlan struct {
	RealTime  bool                `json:"real_time"`
	Callbacks []LifecycleEvent    `json:"callbacks"`
	Metrics   []PerformanceMetric `json:"metrics"`
}

// ProgressEvent is one lifecycle transition published on a plan's event
// stream.
type ProgressEvent struct {
	PlanID    string         `json:"plan_id"`
	Event     LifecycleEvent `json:"event"`
	StepIndex int            `json:"step_index"`
	Detail    string         `json:"detail"`
	At        time.Time      `json:"at"`
}

// StepResult records the outcome of a single executed step.
type StepResult struct {
	Index     int           `json:"index"`
	Success   bool          `json:"success"`
	AmountOut float64       `json:"amount_out"`
	Slippage  float64       `json:"slippage"`
	Elapsed   time.Duration `json:"elapsed"`
	Error     string        `json:"error,omitempty"`
}

// ExecutionResult is the immutable outcome of one plan execution.
type ExecutionResult struct {
	Success             bool          `json:"success"`
	ExpectedProfit      float64       `json:"expected_profit"`
	ActualProfit        float64       `json:"actual_profit"`
	ProfitVariance      float64       `json:"profit_variance"`
	Elapsed             time.Duration `json:"elapsed"`
	ResourceCostUSD     float64       `json:"resource_cost_usd"`
	SlippageEncountered float64       `json:"slippage_encountered"`
	ProtectionEffective bool          `json:"protection_effective"`
	StepResults         []StepResult  `json:"step_results"`
	Lessons             []string      `json:"lessons"`
}

// ExecutionPlan is the unit of work submitted for execution.
type ExecutionPlan struct {
	ID             string                  `json:"id"`
	OpportunityID  string                  `json:"opportunity_id"`
	Opportunity    *detector.Opportunity   `json:"opportunity"`
	Analysis       *profitability.Analysis `json:"analysis"`
	Strategy       ExecutionStrategy       `json:"strategy"`
	Protective     ProtectiveTimingPlan    `json:"protective"`
	Contingencies  []ContingencyPlan       `json:"contingencies"`
	RiskManagement RiskManagementPlan      `json:"risk_management"`
	Timing         TimingPlan              `json:"timing"`
	Monitoring     MonitoringPlan          `json:"monitoring"`
	Status         PlanStatus              `json:"status"`
	CreatedAt      time.Time               `json:"created_at"`
	Result         *ExecutionResult        `json:"result,omitempty"`
}

// Preferences tunes plan synthesis per caller.
type Preferences struct {
	AllowParallel bool    `json:"allow_parallel"`
	MaxSlippage   float64 `json:"max_slippage"`
}
