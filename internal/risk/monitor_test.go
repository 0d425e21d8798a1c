package risk

import (
	"context"
	"sync"
	"testing"
	"time"

	"riskmond/internal/latency"
)

func TestMonitorDecaysRateCountersAfterOneSecond(t *testing.T) {
	t.Parallel()
	metrics := NewMetrics()
	metrics.currentOrderRate.Store(50)
	metrics.currentMessageRate.Store(500)

	mon := NewMonitor(nil, DefaultLimits(), metrics, latency.New(16),
		20*time.Millisecond, time.Hour, 0.8, 0.9, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 1200*time.Millisecond)
	defer cancel()
	mon.Run(ctx)

	if metrics.CurrentOrderRate() != 0 {
		t.Errorf("CurrentOrderRate() = %d, want 0 after decay", metrics.CurrentOrderRate())
	}
	if metrics.CurrentMessageRate() != 0 {
		t.Errorf("CurrentMessageRate() = %d, want 0 after decay", metrics.CurrentMessageRate())
	}
}

func TestMonitorEscalatesOnDailyLossBreach(t *testing.T) {
	t.Parallel()
	limits := DefaultLimits()
	limits.MaxDailyLoss = 1000
	metrics := NewMetrics()
	metrics.UpdatePnL(-2000, 0)

	mon := NewMonitor(nil, limits, metrics, latency.New(16), 10*time.Millisecond, time.Hour, 0.8, 0.9, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	mon.Run(ctx)

	if !metrics.EmergencyStop() {
		t.Error("expected emergency_stop=true after a daily loss breach")
	}
	if metrics.TradingEnabled() {
		t.Error("expected trading_enabled=false after a daily loss breach")
	}
}

func TestMonitorEmitsReportOnInterval(t *testing.T) {
	t.Parallel()
	metrics := NewMetrics()
	metrics.UpdatePnL(100, 50)

	var mu sync.Mutex
	var reports []Report
	mon := NewMonitor(nil, DefaultLimits(), metrics, latency.New(16),
		10*time.Millisecond, 30*time.Millisecond, 0.8, 0.9, func(r Report) {
			mu.Lock()
			defer mu.Unlock()
			reports = append(reports, r)
		})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	mon.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(reports) == 0 {
		t.Fatal("expected at least one report to be emitted")
	}
	if reports[0].DailyPnL != 150 {
		t.Errorf("report DailyPnL = %v, want 150", reports[0].DailyPnL)
	}
	if reports[0].DailyRealizedPnL != 100 {
		t.Errorf("report DailyRealizedPnL = %v, want 100", reports[0].DailyRealizedPnL)
	}
	if reports[0].DailyUnrealizedPnL != 50 {
		t.Errorf("report DailyUnrealizedPnL = %v, want 50", reports[0].DailyUnrealizedPnL)
	}
}

func TestMonitorStopsOnContextCancel(t *testing.T) {
	t.Parallel()
	mon := NewMonitor(nil, DefaultLimits(), NewMetrics(), latency.New(16),
		5*time.Millisecond, time.Hour, 0.8, 0.9, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		mon.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
