package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Plan admission and lookup failures surfaced by the planner.
var (
	// ErrPlanNotFound is returned when a plan id is unknown.
	ErrPlanNotFound = errors.New("execution plan not found")

	// ErrConcurrencyLimit is returned when the global cap on concurrent
	// executions is reached. The plan stays "planned" and may be retried.
	ErrConcurrencyLimit = errors.New("concurrent execution limit exceeded")

	// ErrWindowExpired is returned when a plan's execution window has
	// already closed. The plan is marked failed.
	ErrWindowExpired = errors.New("execution window expired")

	// ErrNoOpportunity is returned when no active opportunity matches a
	// best-for-amount query.
	ErrNoOpportunity = errors.New("no matching opportunity")
)

// DataSourceError wraps a pool or account read failure. These are retried on
// the next scan tick and never fatal to the scan loop.
type DataSourceError struct {
	Pool common.Address
	Op   string
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %s failed for pool %s: %v", e.Op, e.Pool.Hex(), e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// CalculationError marks malformed input to the profitability calculator.
// The opportunity that produced it is dropped.
type CalculationError struct {
	OpportunityID string
	Reason        string
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("profitability calculation failed for %s: %s", e.OpportunityID, e.Reason)
}

// ExecutionError marks a step failure during plan execution. Partial step
// results are retained on the plan's result.
type ExecutionError struct {
	PlanID string
	Step   int
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("plan %s step %d failed: %v", e.PlanID, e.Step, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
