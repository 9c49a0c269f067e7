package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nmoreno/poolarb/internal/breaker"
	"github.com/nmoreno/poolarb/internal/chain"
	"github.com/nmoreno/poolarb/internal/detector"
	"github.com/nmoreno/poolarb/internal/manager"
	"github.com/nmoreno/poolarb/internal/planner"
	"github.com/nmoreno/poolarb/internal/profitability"
	"github.com/nmoreno/poolarb/internal/registry"
	"github.com/nmoreno/poolarb/pkg/healthprobe"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*Server, *detector.Detector) {
	t.Helper()
	logger := zap.NewNop()

	reader := chain.NewSimReader(1, 0)
	reg := registry.New(reader, logger)
	det := detector.New(detector.Config{
		MinProfitUSD:    10,
		MaxRiskScore:    0.7,
		StalenessWindow: 30 * time.Second,
		Logger:          logger,
	}, reg)
	calc := profitability.New(profitability.Fixed{VolatilityValue: 0.05}, logger)
	plan := planner.New(planner.Config{Logger: logger}, planner.NewPaperExecutor(1))
	brk := breaker.New(breaker.Config{Logger: logger})
	mgr := manager.New(manager.Config{
		AutoExecuteRisk: types.RiskMedium,
		Logger:          logger,
	}, reg, det, calc, plan, brk, nil)

	server := New(&Config{
		Port:          "8080",
		Logger:        logger,
		HealthChecker: healthprobe.New(),
		Manager:       mgr,
	})
	return server, det
}

func TestNew_MinimalConfig(t *testing.T) {
	server := New(&Config{
		Port:          "8080",
		Logger:        zap.NewNop(),
		HealthChecker: healthprobe.New(),
	})
	if server == nil {
		t.Fatal("expected non-nil server")
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	server, _ := newTestServer(t)

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s returned %d", path, rec.Code)
		}
	}
}

func TestHandleOpportunities(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp OpportunitiesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("expected empty opportunity set, got %d", resp.Count)
	}
}

func TestHandleOpportunities_BadLimit(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities?limit=abc", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == "" {
		t.Error("expected an error message")
	}
}

func TestHandleStatsAndSystem(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/api/stats returned %d", rec.Code)
	}

	var stats manager.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.IsSystemActive {
		t.Error("system should be inactive")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/system", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("/api/system returned %d", rec.Code)
	}

	var health manager.Health
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.DetectorState != detector.StateIdle {
		t.Errorf("expected idle detector, got %s", health.DetectorState)
	}
}

func TestShutdown(t *testing.T) {
	server, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
