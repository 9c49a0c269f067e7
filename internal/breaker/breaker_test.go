package breaker

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestBreaker(losses int, drawdown float64, cooldown time.Duration) *Breaker {
	return New(Config{
		MaxConsecutiveLosses: losses,
		MaxDrawdownUSD:       drawdown,
		Cooldown:             cooldown,
		Logger:               zap.NewNop(),
	})
}

func TestConsecutiveLossesTrip(t *testing.T) {
	b := newTestBreaker(3, 10_000, time.Hour)

	b.RecordResult(-5)
	b.RecordResult(-5)
	if !b.Allowed() {
		t.Fatal("breaker tripped before the limit")
	}

	b.RecordResult(-5)
	if b.Allowed() {
		t.Fatal("breaker should trip on the third consecutive loss")
	}
	if b.State() != StateOpen {
		t.Errorf("expected open, got %s", b.State())
	}
}

func TestProfitResetsStreak(t *testing.T) {
	b := newTestBreaker(3, 10_000, time.Hour)

	b.RecordResult(-5)
	b.RecordResult(-5)
	b.RecordResult(20)
	b.RecordResult(-5)
	b.RecordResult(-5)

	if !b.Allowed() {
		t.Error("profit in between should have reset the loss streak")
	}
}

func TestDrawdownTrips(t *testing.T) {
	b := newTestBreaker(100, 50, time.Hour)

	b.RecordResult(-30)
	if !b.Allowed() {
		t.Fatal("breaker tripped below the drawdown limit")
	}
	b.RecordResult(-30)
	if b.Allowed() {
		t.Fatal("breaker should trip once drawdown exceeds the limit")
	}
}

func TestCooldownReopens(t *testing.T) {
	b := newTestBreaker(1, 10_000, 10*time.Millisecond)

	b.RecordResult(-5)
	if b.Allowed() {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)
	if !b.Allowed() {
		t.Error("breaker should close after the cooldown")
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}
}

func TestManualTripAndReset(t *testing.T) {
	b := newTestBreaker(3, 10_000, time.Hour)

	b.Trip("operator")
	if b.Allowed() {
		t.Fatal("manual trip should open the breaker")
	}

	b.Reset()
	if !b.Allowed() {
		t.Fatal("manual reset should close the breaker")
	}
}

func TestFailedExecutionsTrip(t *testing.T) {
	b := newTestBreaker(2, 10_000, time.Hour)

	// Zero sunk cost still advances the streak
	b.RecordFailure(0)
	if !b.Allowed() {
		t.Fatal("breaker tripped before the limit")
	}

	b.RecordFailure(0)
	if b.Allowed() {
		t.Fatal("breaker should trip on the second consecutive failure")
	}
}

func TestFailureCostCountsTowardDrawdown(t *testing.T) {
	b := newTestBreaker(10, 100, time.Hour)

	b.RecordFailure(60)
	if !b.Allowed() {
		t.Fatal("breaker tripped below the drawdown limit")
	}

	b.RecordFailure(60)
	if b.Allowed() {
		t.Fatal("breaker should trip once failure costs exceed the drawdown limit")
	}
}

func TestProfitResetsFailureStreak(t *testing.T) {
	b := newTestBreaker(3, 10_000, time.Hour)

	b.RecordFailure(5)
	b.RecordFailure(5)
	b.RecordResult(20)
	b.RecordFailure(5)
	b.RecordFailure(5)

	if !b.Allowed() {
		t.Fatal("profit should have reset the failure streak")
	}
}

func TestDisabledBreakerNeverBlocks(t *testing.T) {
	b := newTestBreaker(1, 1, time.Hour)
	b.SetEnabled(false)

	b.RecordFailure(100)
	b.RecordResult(-100)

	if !b.Allowed() {
		t.Fatal("disabled breaker must always allow executions")
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed, got %s", b.State())
	}

	// Re-enabling starts from the untripped state: the ignored outcomes
	// above must not have accumulated.
	b.SetEnabled(true)
	if !b.Allowed() {
		t.Fatal("outcomes recorded while disabled must not count")
	}
}
