package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/internal/planner"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Test connection
	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}, nil
}

// StoreOpportunity stores an arbitrage opportunity in PostgreSQL.
func (p *PostgresStorage) StoreOpportunity(ctx context.Context, opp *detector.Opportunity) error {
	query := `
		INSERT INTO arbitrage_opportunities (
			id, cycle_type, input_token, hop_count, detected_at,
			gross_profit, gas_costs, priority_fees, net_profit,
			margin, roi, breakeven_amount, max_profitable_amount,
			mean_risk, overall_risk, confidence
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		opp.ID,
		string(opp.Type),
		opp.InputToken.Symbol,
		len(opp.Route),
		opp.DetectedAt,
		opp.Profit.GrossProfit,
		opp.Profit.GasCosts,
		opp.Profit.PriorityFees,
		opp.Profit.NetProfit,
		opp.Profit.Margin,
		opp.Profit.ROI,
		opp.Profit.BreakevenAmount,
		opp.Profit.MaxProfitableAmount,
		opp.Risk.Mean(),
		string(opp.Risk.Overall),
		opp.Confidence,
	)

	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	p.logger.Debug("opportunity-stored",
		zap.String("opportunity-id", opp.ID),
		zap.String("type", string(opp.Type)),
		zap.Float64("net-profit-usd", opp.Profit.NetProfit))

	return nil
}

// StoreResult stores an execution result in PostgreSQL.
func (p *PostgresStorage) StoreResult(ctx context.Context, planID string, result *planner.ExecutionResult) error {
	query := `
		INSERT INTO execution_results (
			plan_id, success, expected_profit, actual_profit,
			profit_variance, elapsed_ms, resource_cost_usd,
			slippage, protection_effective, step_count
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := p.db.ExecContext(ctx, query,
		planID,
		result.Success,
		result.ExpectedProfit,
		result.ActualProfit,
		result.ProfitVariance,
		result.Elapsed.Milliseconds(),
		result.ResourceCostUSD,
		result.SlippageEncountered,
		result.ProtectionEffective,
		len(result.StepResults),
	)

	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	p.logger.Debug("result-stored",
		zap.String("plan-id", planID),
		zap.Bool("success", result.Success),
		zap.Float64("actual-profit-usd", result.ActualProfit))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
