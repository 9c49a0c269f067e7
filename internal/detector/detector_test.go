package detector

import (
	"context"
	"testing"
	"time"

	"github.com/nmoreno/poolarb/internal/chain"
	"github.com/nmoreno/poolarb/internal/registry"
	"github.com/nmoreno/poolarb/pkg/types"
	"go.uber.org/zap"
)

func newTestDetector(t *testing.T, pools ...*types.Pool) (*Detector, *registry.Registry) {
	t.Helper()

	reader := chain.NewSimReader(1, 0)
	reg := registry.New(reader, zap.NewNop())
	for _, pool := range pools {
		reader.SetPool(pool)
		if _, err := reg.AddPool(context.Background(), pool.Address); err != nil {
			t.Fatalf("add pool: %v", err)
		}
	}

	d := New(Config{
		ScanInterval:    time.Second,
		MinProfitUSD:    10,
		MaxRiskScore:    0.7,
		StalenessWindow: 30 * time.Second,
		Logger:          zap.NewNop(),
	}, reg)
	return d, reg
}

func TestStateTransitions(t *testing.T) {
	d, _ := newTestDetector(t)

	if d.State() != StateIdle {
		t.Fatalf("expected idle, got %s", d.State())
	}

	d.Start(context.Background())
	if d.State() != StateMonitoring {
		t.Fatalf("expected monitoring after start, got %s", d.State())
	}

	// Second start while monitoring is a no-op
	d.Start(context.Background())
	if d.State() != StateMonitoring {
		t.Fatalf("expected monitoring after double start, got %s", d.State())
	}

	d.Stop()
	if d.State() != StateIdle {
		t.Fatalf("expected idle after stop, got %s", d.State())
	}

	// Stop when already idle must not panic or block
	d.Stop()
}

func TestScanSinglePoolNoOp(t *testing.T) {
	d, _ := newTestDetector(t, CreateTestPool(addrA, 100, 100_000))

	d.Scan(context.Background())

	if got := len(d.ActiveOpportunities()); got != 0 {
		t.Errorf("expected no opportunities with one pool, got %d", got)
	}
	if d.Stats().ScansCompleted != 0 {
		t.Errorf("single-pool cycle should not count as a scan")
	}
}

func TestScanDetectsAndFilters(t *testing.T) {
	d, _ := newTestDetector(t,
		CreateTestPool(addrA, 100, 100_000),
		CreateTestPool(addrB, 101, 100_000),
	)

	d.Scan(context.Background())

	opps := d.ActiveOpportunities()
	if len(opps) == 0 {
		t.Fatal("expected detected opportunities")
	}

	for _, opp := range opps {
		if opp.Profit.NetProfit < 10 {
			t.Errorf("opportunity below min profit survived filter: %f", opp.Profit.NetProfit)
		}
		if opp.Risk.Mean() > 0.7 {
			t.Errorf("opportunity above max risk survived filter: %f", opp.Risk.Mean())
		}
	}

	// Sorted descending by net profit
	for i := 1; i < len(opps); i++ {
		if opps[i].Profit.NetProfit > opps[i-1].Profit.NetProfit {
			t.Errorf("opportunities not sorted descending at %d", i)
		}
	}

	if d.Stats().ScansCompleted != 1 {
		t.Errorf("expected 1 completed scan, got %d", d.Stats().ScansCompleted)
	}
}

func TestScanPublishesOnChannel(t *testing.T) {
	d, _ := newTestDetector(t,
		CreateTestPool(addrA, 100, 100_000),
		CreateTestPool(addrB, 101, 100_000),
	)

	d.Scan(context.Background())

	select {
	case opp := <-d.OpportunityChan():
		if opp.Profit.NetProfit < 10 {
			t.Errorf("published opportunity below threshold: %f", opp.Profit.NetProfit)
		}
	default:
		t.Fatal("expected an opportunity on the channel")
	}
}

func TestStalenessPurgeIdempotent(t *testing.T) {
	d, _ := newTestDetector(t)

	fresh := CreateTestOpportunity(50)
	stale := CreateTestOpportunity(60)
	stale.DetectedAt = time.Now().Add(-time.Minute)

	d.mu.Lock()
	d.active[fresh.ID] = fresh
	d.active[stale.ID] = stale
	d.mu.Unlock()

	opps := d.ActiveOpportunities()
	if len(opps) != 1 || opps[0].ID != fresh.ID {
		t.Fatalf("expected only the fresh opportunity, got %d", len(opps))
	}

	// Second purge finds nothing new to evict
	if got := len(d.ActiveOpportunities()); got != 1 {
		t.Errorf("purge not idempotent, got %d", got)
	}

	if _, ok := d.Get(stale.ID); ok {
		t.Error("stale opportunity still retrievable by id")
	}
	if _, ok := d.Get(fresh.ID); !ok {
		t.Error("fresh opportunity not retrievable by id")
	}
}

func TestRemoveForPoolCascades(t *testing.T) {
	pool := CreateTestPool(addrA, 100, 100_000)
	d, reg := newTestDetector(t,
		pool,
		CreateTestPool(addrB, 101, 100_000),
	)

	d.Scan(context.Background())
	if len(d.ActiveOpportunities()) == 0 {
		t.Fatal("expected opportunities before removal")
	}

	reg.RemovePool(pool.Address)

	for _, opp := range d.ActiveOpportunities() {
		if opp.References(pool.Address) {
			t.Errorf("opportunity %s still references removed pool", opp.ID)
		}
	}
}

func TestBestOpportunityForAmount(t *testing.T) {
	d, _ := newTestDetector(t)

	opp := CreateTestOpportunity(50)
	d.mu.Lock()
	d.active[opp.ID] = opp
	d.mu.Unlock()

	// Below breakeven (500): no match
	if _, err := d.BestOpportunityForAmount(opp.InputToken.Address, 100); err != types.ErrNoOpportunity {
		t.Errorf("expected ErrNoOpportunity for 100, got %v", err)
	}

	// Within [breakeven, max profitable]: match
	got, err := d.BestOpportunityForAmount(opp.InputToken.Address, 1000)
	if err != nil {
		t.Fatalf("expected a match for 1000, got %v", err)
	}
	if got.ID != opp.ID {
		t.Errorf("wrong opportunity returned")
	}

	// Above max profitable amount (10000): no match
	if _, err := d.BestOpportunityForAmount(opp.InputToken.Address, 50_000); err != types.ErrNoOpportunity {
		t.Errorf("expected ErrNoOpportunity for 50000, got %v", err)
	}
}

func TestBestOpportunityRanksByRiskAdjustedReturn(t *testing.T) {
	d, _ := newTestDetector(t)

	lowProfit := CreateTestOpportunity(20)
	highProfit := CreateTestOpportunity(80)

	d.mu.Lock()
	d.active[lowProfit.ID] = lowProfit
	d.active[highProfit.ID] = highProfit
	d.mu.Unlock()

	got, err := d.BestOpportunityForAmount(highProfit.InputToken.Address, 1000)
	if err != nil {
		t.Fatalf("expected a match, got %v", err)
	}
	if got.ID != highProfit.ID {
		t.Errorf("expected the higher risk-adjusted return to win")
	}
}
