package risk

import (
	"context"
	"log/slog"
	"time"

	"riskmond/internal/latency"
)

// Monitor is the background worker that decays rate counters, escalates
// to an emergency stop on a daily-loss breach, and periodically emits a
// report. It runs parallel to the Gate, reading the same Metrics.
type Monitor struct {
	logger  *slog.Logger
	limits  Limits
	metrics *Metrics
	latency *latency.Tracker

	tick           time.Duration
	reportInterval time.Duration
	warnLow        float64
	warnHigh       float64

	onReport func(Report)
}

// Report is the periodic snapshot Monitor emits every reportInterval.
type Report struct {
	PortfolioValue     float64
	DailyPnL           float64
	DailyRealizedPnL   float64
	DailyUnrealizedPnL float64
	DailyTrades        uint64
	DailyOrders        uint64
	RejectedOrders     uint64
	CurrentOrderRate   uint64
	CurrentMessageRate uint64
	TradingEnabled     bool
	EmergencyStop      bool
	Latency            latency.Snapshot
	GeneratedAt        time.Time
}

// NewMonitor constructs a Monitor. tick is the wake interval (100ms
// nominal); reportInterval governs how often onReport fires (30s
// nominal); warnLow/warnHigh are the fractional thresholds (0.8/0.9
// nominal) at which WARN logs fire for daily loss and order rate.
func NewMonitor(logger *slog.Logger, limits Limits, metrics *Metrics, tracker *latency.Tracker,
	tick, reportInterval time.Duration, warnLow, warnHigh float64, onReport func(Report)) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger:         logger,
		limits:         limits,
		metrics:        metrics,
		latency:        tracker,
		tick:           tick,
		reportInterval: reportInterval,
		warnLow:        warnLow,
		warnHigh:       warnHigh,
		onReport:       onReport,
	}
}

// Run blocks, ticking every m.tick, until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	var sinceDecay, sinceReport time.Duration

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sinceDecay += m.tick
			sinceReport += m.tick

			m.checkThresholds()
			m.checkEmergency()

			if sinceDecay >= time.Second {
				sinceDecay = 0
				m.metrics.currentOrderRate.Store(0)
				m.metrics.currentMessageRate.Store(0)
			}

			if sinceReport >= m.reportInterval {
				sinceReport = 0
				m.emitReport()
			}
		}
	}
}

// checkThresholds logs WARNs at warnLow/warnHigh fractions of the
// daily-loss and order-rate limits. It never mutates state: escalation to
// an emergency stop happens only in checkEmergency.
func (m *Monitor) checkThresholds() {
	loss := -m.metrics.DailyPnL()
	m.warnAt(loss, m.limits.MaxDailyLoss, "daily loss")

	rate := float64(m.metrics.CurrentOrderRate())
	m.warnAt(rate, float64(m.limits.MaxOrderRate), "order rate")
}

func (m *Monitor) warnAt(value, limit float64, label string) {
	if limit <= 0 {
		return
	}
	frac := value / limit
	switch {
	case frac >= m.warnHigh:
		m.logger.Warn("risk threshold breach imminent", "metric", label, "fraction", frac)
	case frac >= m.warnLow:
		m.logger.Warn("risk threshold approaching", "metric", label, "fraction", frac)
	}
}

// checkEmergency is the sole place the emergency latch is set: on a daily
// loss breach it atomically sets emergency_stop and clears trading_enabled.
// The same condition is also checked inline by the Gate on every call
// (§4.8); both paths are idempotent, so whichever observes the breach
// first wins and the other's store is a harmless repeat.
func (m *Monitor) checkEmergency() {
	if m.metrics.DailyPnL() < -m.limits.MaxDailyLoss {
		if !m.metrics.EmergencyStop() {
			m.logger.Error("EMERGENCY STOP: daily loss limit breached",
				"daily_pnl", m.metrics.DailyPnL(), "max_daily_loss", m.limits.MaxDailyLoss)
		}
		m.metrics.emergencyStop.Store(true)
		m.metrics.tradingEnabled.Store(false)
	}
}

func (m *Monitor) emitReport() Report {
	r := Report{
		PortfolioValue:     m.metrics.CurrentPortfolioValue(),
		DailyPnL:           m.metrics.DailyPnL(),
		DailyRealizedPnL:   m.metrics.DailyRealizedPnL(),
		DailyUnrealizedPnL: m.metrics.DailyUnrealizedPnL(),
		DailyTrades:        m.metrics.DailyTrades(),
		DailyOrders:        m.metrics.DailyOrders(),
		RejectedOrders:     m.metrics.RejectedOrders(),
		CurrentOrderRate:   m.metrics.CurrentOrderRate(),
		CurrentMessageRate: m.metrics.CurrentMessageRate(),
		TradingEnabled:     m.metrics.TradingEnabled(),
		EmergencyStop:      m.metrics.EmergencyStop(),
		GeneratedAt:        time.Now(),
	}
	if m.latency != nil {
		r.Latency = m.latency.Snapshot()
	}

	m.logger.Info("risk report",
		"portfolio_value", r.PortfolioValue,
		"daily_pnl", r.DailyPnL,
		"daily_realized_pnl", r.DailyRealizedPnL,
		"daily_unrealized_pnl", r.DailyUnrealizedPnL,
		"daily_trades", r.DailyTrades,
		"daily_orders", r.DailyOrders,
		"rejected_orders", r.RejectedOrders,
		"order_rate", r.CurrentOrderRate,
		"message_rate", r.CurrentMessageRate,
		"trading_enabled", r.TradingEnabled,
		"emergency_stop", r.EmergencyStop,
	)

	if m.onReport != nil {
		m.onReport(r)
	}
	return r
}
