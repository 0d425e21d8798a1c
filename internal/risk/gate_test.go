package risk

import (
	"testing"

	"riskmond/internal/latency"
)

func newTestGate(limits Limits) (*Gate, *Metrics) {
	metrics := NewMetrics()
	gate := NewGate(nil, limits, metrics, latency.New(16))
	return gate, metrics
}

func TestGateAdmitsWithinLimits(t *testing.T) {
	t.Parallel()
	gate, _ := newTestGate(DefaultLimits())

	if !gate.Check("RELIANCE", Buy, 100, 10) {
		t.Error("expected admission well within all limits")
	}
}

func TestGateRejectsWhenTradingDisabled(t *testing.T) {
	t.Parallel()
	gate, metrics := newTestGate(DefaultLimits())
	metrics.tradingEnabled.Store(false)

	if gate.Check("RELIANCE", Buy, 1, 1) {
		t.Error("expected rejection when trading_enabled=false")
	}
}

func TestGateRejectsWhenEmergencyStopped(t *testing.T) {
	t.Parallel()
	gate, metrics := newTestGate(DefaultLimits())
	metrics.emergencyStop.Store(true)

	if gate.Check("RELIANCE", Buy, 1, 1) {
		t.Error("expected rejection when emergency_stop=true")
	}
}

func TestGateRejectsOrderValueOverLimit(t *testing.T) {
	t.Parallel()
	limits := DefaultLimits()
	limits.MaxOrderValue = 1000
	gate, _ := newTestGate(limits)

	if gate.Check("RELIANCE", Buy, 100, 100) {
		t.Error("expected rejection: order value 10000 > limit 1000")
	}
}

func TestGateDailyLossLatchesTradingDisabled(t *testing.T) {
	t.Parallel()
	limits := DefaultLimits()
	limits.MaxOrderValue = 1_000_000
	limits.MaxDailyLoss = 1_000_000
	gate, metrics := newTestGate(limits)
	metrics.UpdatePnL(-1_000_001, 0)

	if gate.Check("RELIANCE", Buy, 1, 1) {
		t.Error("expected rejection: daily loss exceeds max_daily_loss")
	}
	if metrics.TradingEnabled() {
		t.Error("expected trading_enabled to latch false after daily loss breach")
	}
	if gate.Check("RELIANCE", Buy, 1, 1) {
		t.Error("expected subsequent checks to keep rejecting until reset")
	}
}

func TestGateResetClearsLatch(t *testing.T) {
	t.Parallel()
	limits := DefaultLimits()
	limits.MaxDailyLoss = 1000
	gate, metrics := newTestGate(limits)
	metrics.UpdatePnL(-2000, 0)
	gate.Check("RELIANCE", Buy, 1, 1)

	if metrics.TradingEnabled() {
		t.Fatal("expected latch to be set before reset")
	}
	gate.Reset()
	if !metrics.TradingEnabled() {
		t.Error("expected trading_enabled=true after Reset")
	}
	if metrics.EmergencyStop() {
		t.Error("expected emergency_stop=false after Reset")
	}
}

func TestGateRejectsOrderRateExceeded(t *testing.T) {
	t.Parallel()
	limits := DefaultLimits()
	limits.MaxOrderRate = 2
	gate, _ := newTestGate(limits)

	if !gate.Check("RELIANCE", Buy, 1, 1) {
		t.Fatal("expected first order to admit")
	}
	if !gate.Check("RELIANCE", Buy, 1, 1) {
		t.Fatal("expected second order to admit")
	}
	if gate.Check("RELIANCE", Buy, 1, 1) {
		t.Error("expected third order to be rejected: order rate at limit")
	}
}

func TestGateRejectsPortfolioValueOverLimit(t *testing.T) {
	t.Parallel()
	limits := DefaultLimits()
	limits.MaxPortfolioValue = 1000
	gate, metrics := newTestGate(limits)
	metrics.UpdatePosition(950)

	if gate.Check("RELIANCE", Buy, 100, 1) {
		t.Error("expected rejection: projected portfolio value 1050 > limit 1000")
	}
}

func TestGateSellSideReducesProjectedPortfolioValue(t *testing.T) {
	t.Parallel()
	limits := DefaultLimits()
	limits.MaxPortfolioValue = 1000
	gate, metrics := newTestGate(limits)
	metrics.UpdatePosition(950)

	if !gate.Check("RELIANCE", Sell, 100, 1) {
		t.Error("expected admission: a sell reduces projected portfolio value")
	}
}

func TestGateRecordsLatency(t *testing.T) {
	t.Parallel()
	tracker := latency.New(16)
	gate := NewGate(nil, DefaultLimits(), NewMetrics(), tracker)

	gate.Check("RELIANCE", Buy, 1, 1)
	if tracker.Snapshot().Count != 1 {
		t.Errorf("expected one latency sample recorded per Check call")
	}
}
