package planner

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/nmoreno/poolarb/internal/chain"
	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

// StepExecutor carries out a single execution step. The paper executor
// simulates fills; the live executor signs and submits.
type StepExecutor interface {
	ExecuteStep(ctx context.Context, plan *ExecutionPlan, step detector.ExecutionStep) (StepResult, error)
}

// PaperExecutor simulates step fills with seeded slippage noise.
type PaperExecutor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPaperExecutor creates a seeded paper-trading executor.
func NewPaperExecutor(seed int64) *PaperExecutor {
	return &PaperExecutor{rng: rand.New(rand.NewSource(seed))}
}

func (e *PaperExecutor) ExecuteStep(ctx context.Context, plan *ExecutionPlan, step detector.ExecutionStep) (StepResult, error) {
	start := time.Now()

	select {
	case <-ctx.Done():
		return StepResult{Index: step.Index, Error: ctx.Err().Error()}, ctx.Err()
	default:
	}

	e.mu.Lock()
	slip := e.rng.Float64() * 0.002
	e.mu.Unlock()

	// Simulated fill lands slightly above the floor the step guarantees.
	out := step.MinAmountOut * (1 + 0.003 - slip)
	return StepResult{
		Index:     step.Index,
		Success:   true,
		AmountOut: out,
		Slippage:  slip,
		Elapsed:   time.Since(start),
	}, nil
}

// LiveExecutor signs each step with the configured identity and submits it
// through the chain client.
type LiveExecutor struct {
	signer chain.Signer
	logger *zap.Logger
}

// NewLiveExecutor creates an executor backed by a signing identity.
func NewLiveExecutor(signer chain.Signer, logger *zap.Logger) *LiveExecutor {
	return &LiveExecutor{signer: signer, logger: logger}
}

func (e *LiveExecutor) ExecuteStep(ctx context.Context, plan *ExecutionPlan, step detector.ExecutionStep) (StepResult, error) {
	start := time.Now()

	payload := fmt.Sprintf("%s:%d:%s:%f:%f",
		plan.ID, step.Index, step.Pool.Hex(), step.AmountIn, step.MinAmountOut)
	digest := crypto.Keccak256([]byte(payload))

	sig, err := e.signer.Sign(digest)
	if err != nil {
		return StepResult{Index: step.Index, Error: err.Error(), Elapsed: time.Since(start)},
			&types.ExecutionError{PlanID: plan.ID, Step: step.Index, Err: err}
	}

	e.logger.Info("step-submitted",
		zap.String("plan-id", plan.ID),
		zap.Int("step", step.Index),
		zap.String("pool", step.Pool.Hex()),
		zap.String("signer", e.signer.Address().Hex()),
		zap.Int("signature-bytes", len(sig)))

	return StepResult{
		Index:     step.Index,
		Success:   true,
		AmountOut: step.MinAmountOut,
		Elapsed:   time.Since(start),
	}, nil
}

// ExecutePlan runs a stored plan to completion or failure. Admission rules:
// an unknown id fails with ErrPlanNotFound; an expired window marks the
// plan failed and returns ErrWindowExpired; more than the configured
// concurrent executions fail fast with ErrConcurrencyLimit, leaving the
// plan planned for retry. Cleanup always runs, whatever the outcome.
func (p *Planner) ExecutePlan(ctx context.Context, planID string) (*ExecutionResult, error) {
	p.mu.Lock()
	plan, ok := p.plans[planID]
	if !ok {
		p.mu.Unlock()
		return nil, types.ErrPlanNotFound
	}

	if time.Now().After(plan.Timing.WindowEnd) {
		plan.Status = StatusFailed
		p.failed++
		p.mu.Unlock()

		ExecutionsTotal.WithLabelValues("window_expired").Inc()
		p.publish(planID, EventOpportunityExpired, -1, "execution window expired")
		p.closeEvents(planID)
		return nil, types.ErrWindowExpired
	}

	if p.executing >= p.config.MaxConcurrent {
		p.mu.Unlock()
		ExecutionsTotal.WithLabelValues("concurrency_limit").Inc()
		return nil, types.ErrConcurrencyLimit
	}

	p.executing++
	plan.Status = StatusExecuting
	execCtx, cancel := context.WithCancel(ctx)
	p.cancels[planID] = cancel
	p.mu.Unlock()

	ExecutionsInFlight.Inc()
	p.logger.Info("execution-started",
		zap.String("plan-id", planID),
		zap.String("strategy", string(plan.Strategy.Type)))

	// Cleanup runs on every exit path, including panics in the executor.
	defer func() {
		cancel()
		p.mu.Lock()
		p.executing--
		delete(p.cancels, planID)
		p.mu.Unlock()
		ExecutionsInFlight.Dec()
		p.closeEvents(planID)
	}()

	start := time.Now()
	p.applyProtectiveTiming(execCtx, plan)

	stepResults, execErr := p.runSteps(execCtx, plan)
	result := p.finalize(plan, stepResults, time.Since(start), execErr)

	p.mu.Lock()
	plan.Result = result
	if result.Success {
		plan.Status = StatusCompleted
		p.completed++
		p.totalProfit += result.ActualProfit
	} else {
		plan.Status = StatusFailed
		p.failed++
	}
	p.mu.Unlock()

	if result.Success {
		ExecutionsTotal.WithLabelValues("completed").Inc()
		RealizedProfitUSD.Observe(result.ActualProfit)
		p.publish(planID, EventProfitRealized, -1,
			fmt.Sprintf("realized %.2f USD", result.ActualProfit))
		p.logger.Info("execution-completed",
			zap.String("plan-id", planID),
			zap.Float64("actual-profit-usd", result.ActualProfit),
			zap.Duration("elapsed", result.Elapsed))
		return result, nil
	}

	ExecutionsTotal.WithLabelValues("failed").Inc()
	p.logger.Error("execution-failed",
		zap.String("plan-id", planID),
		zap.Error(execErr),
		zap.Int("steps-completed", len(stepResults)))
	return result, execErr
}

// applyProtectiveTiming sleeps a jittered delay inside the configured
// bounds. Cancellation cuts the delay short.
func (p *Planner) applyProtectiveTiming(ctx context.Context, plan *ExecutionPlan) {
	jitter := plan.Protective.Jitter
	span := jitter.MaxDelayMs - jitter.MinDelayMs
	if span <= 0 {
		return
	}
	delay := time.Duration(jitter.MinDelayMs+rand.Intn(span)) * time.Millisecond

	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// runSteps executes the plan's steps under the chosen strategy. Dependency
// order is honored for every strategy; the parallel strategy is only ever
// selected for dependency-free plans.
func (p *Planner) runSteps(ctx context.Context, plan *ExecutionPlan) ([]StepResult, error) {
	if plan.Strategy.Type == StrategyParallel {
		return p.runParallel(ctx, plan)
	}
	return p.runOrdered(ctx, plan)
}

func (p *Planner) runOrdered(ctx context.Context, plan *ExecutionPlan) ([]StepResult, error) {
	results := make([]StepResult, 0, len(plan.Opportunity.Steps))
	completed := make(map[int]bool, len(plan.Opportunity.Steps))

	for _, step := range plan.Opportunity.Steps {
		for _, dep := range step.DependsOn {
			if !completed[dep] {
				err := &types.ExecutionError{
					PlanID: plan.ID,
					Step:   step.Index,
					Err:    fmt.Errorf("dependency %d not completed", dep),
				}
				p.publish(plan.ID, EventStepFailed, step.Index, err.Error())
				return results, err
			}
		}

		res, err := p.executeOne(ctx, plan, step)
		results = append(results, res)
		if err != nil {
			return results, err
		}
		completed[step.Index] = true
	}

	return results, nil
}

func (p *Planner) runParallel(ctx context.Context, plan *ExecutionPlan) ([]StepResult, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		results  []StepResult
		firstErr error
	)

	for _, step := range plan.Opportunity.Steps {
		wg.Add(1)
		go func(step detector.ExecutionStep) {
			defer wg.Done()
			res, err := p.executeOne(ctx, plan, step)
			mu.Lock()
			results = append(results, res)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}(step)
	}
	wg.Wait()

	return results, firstErr
}

// executeOne runs a single step under the per-step timeout, publishing the
// lifecycle events around it.
func (p *Planner) executeOne(ctx context.Context, plan *ExecutionPlan, step detector.ExecutionStep) (StepResult, error) {
	p.publish(plan.ID, EventStepStarted, step.Index, step.Description)

	stepCtx, cancel := context.WithTimeout(ctx, p.config.StepTimeout)
	defer cancel()

	res, err := p.executor.ExecuteStep(stepCtx, plan, step)
	if err != nil {
		p.publish(plan.ID, EventStepFailed, step.Index, err.Error())
		execErr, ok := err.(*types.ExecutionError)
		if !ok {
			execErr = &types.ExecutionError{PlanID: plan.ID, Step: step.Index, Err: err}
		}
		return res, execErr
	}

	p.publish(plan.ID, EventStepCompleted, step.Index, step.Description)
	return res, nil
}

// finalize assembles the immutable execution result.
func (p *Planner) finalize(plan *ExecutionPlan, stepResults []StepResult, elapsed time.Duration, execErr error) *ExecutionResult {
	expected := plan.Analysis.Base.NetProfit

	totalSlippage := 0.0
	slippageCost := 0.0
	for _, r := range stepResults {
		totalSlippage += r.Slippage
		slippageCost += r.Slippage * plan.Analysis.InputAmount
	}

	success := execErr == nil
	actual := 0.0
	if success {
		actual = expected - slippageCost
	}

	protectionEffective := true
	for _, r := range stepResults {
		if r.Slippage > plan.Protective.Sandwich.PriceImpactThreshold {
			protectionEffective = false
		}
	}

	var lessons []string
	switch {
	case !success:
		lessons = append(lessons, "step failure: tighten pre-execution quote validation")
	case actual < expected*0.75:
		lessons = append(lessons, "slippage ate a quarter of the edge: reduce size or tighten min-out")
	default:
		lessons = append(lessons, "execution within tolerance of the analysis")
	}

	return &ExecutionResult{
		Success:             success,
		ExpectedProfit:      expected,
		ActualProfit:        actual,
		ProfitVariance:      actual - expected,
		Elapsed:             elapsed,
		ResourceCostUSD:     plan.Analysis.Base.EstimatedCostUSD,
		SlippageEncountered: totalSlippage,
		ProtectionEffective: protectionEffective,
		StepResults:         stepResults,
		Lessons:             lessons,
	}
}
