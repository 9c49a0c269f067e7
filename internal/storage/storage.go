package storage

import (
	"context"

	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/internal/planner"
)

// Storage is the interface for persisting detected opportunities and
// execution outcomes.
type Storage interface {
	// StoreOpportunity persists a detected arbitrage opportunity.
	StoreOpportunity(ctx context.Context, opp *detector.Opportunity) error

	// StoreResult persists the outcome of one plan execution.
	StoreResult(ctx context.Context, planID string, result *planner.ExecutionResult) error

	// Close closes the storage connection.
	Close() error
}
