package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/internal/planner"
	"go.uber.org/zap"
)

func testResult() *planner.ExecutionResult {
	return &planner.ExecutionResult{
		Success:             true,
		ExpectedProfit:      50,
		ActualProfit:        48.5,
		ProfitVariance:      -1.5,
		Elapsed:             1200 * time.Millisecond,
		ResourceCostUSD:     2,
		SlippageEncountered: 0.0015,
		ProtectionEffective: true,
		StepResults: []planner.StepResult{
			{Index: 0, Success: true, AmountOut: 9.98},
			{Index: 1, Success: true, AmountOut: 1050},
		},
		Lessons: []string{"execution within tolerance of the analysis"},
	}
}

func TestConsoleStorage_New(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	storage := NewConsoleStorage(logger)

	if storage == nil {
		t.Fatal("expected non-nil storage")
	}

	if storage.logger == nil {
		t.Error("expected non-nil logger")
	}
}

func TestConsoleStorage_StoreOpportunity(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	opp := detector.CreateTestOpportunity(50)
	ctx := context.Background()

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := storage.StoreOpportunity(ctx, opp)

	// Restore stdout
	w.Close()
	os.Stdout = oldStdout

	// Read captured output
	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if !bytes.Contains([]byte(output), []byte("ARBITRAGE OPPORTUNITY DETECTED")) {
		t.Error("expected output to contain 'ARBITRAGE OPPORTUNITY DETECTED'")
	}

	if !bytes.Contains([]byte(output), []byte(string(opp.Type))) {
		t.Errorf("expected output to contain cycle type %s", opp.Type)
	}

	if !bytes.Contains([]byte(output), []byte(opp.InputToken.Symbol)) {
		t.Errorf("expected output to contain input token %s", opp.InputToken.Symbol)
	}
}

func TestConsoleStorage_StoreResult(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := storage.StoreResult(context.Background(), "plan-1234-abcd", testResult())

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !bytes.Contains([]byte(output), []byte("EXECUTION COMPLETED")) {
		t.Error("expected output to contain 'EXECUTION COMPLETED'")
	}
}

func TestConsoleStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	err := storage.Close()
	if err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}
}

// TestPostgresStorage tests the PostgreSQL storage implementation using sqlmock
func TestPostgresStorage_StoreOpportunity(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	opp := detector.CreateTestOpportunity(50)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO arbitrage_opportunities").
		WithArgs(
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
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := storage.StoreOpportunity(ctx, opp); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_StoreResult(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	result := testResult()

	mock.ExpectExec("INSERT INTO execution_results").
		WithArgs(
			"plan-1234",
			result.Success,
			result.ExpectedProfit,
			result.ActualProfit,
			result.ProfitVariance,
			result.Elapsed.Milliseconds(),
			result.ResourceCostUSD,
			result.SlippageEncountered,
			result.ProtectionEffective,
			len(result.StepResults),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := storage.StoreResult(context.Background(), "plan-1234", result); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_StoreError(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{
		db:     db,
		logger: logger,
	}

	mock.ExpectExec("INSERT INTO arbitrage_opportunities").
		WillReturnError(io.ErrUnexpectedEOF)

	if err := storage.StoreOpportunity(context.Background(), detector.CreateTestOpportunity(50)); err == nil {
		t.Error("expected an error from a failing insert")
	}
}
