package risk

import (
	"math"
	"sync/atomic"
)

// Metrics is the shared, all-atomic risk state consulted by the gate and
// mutated by the gate and by external P&L/position updaters. There is no
// compound lock across fields: the gate's five predicates each read an
// independent atomic, and the only cross-field invariant (the
// trading_enabled/emergency_stop latch) is a monotonic one-way transition,
// so no transactional snapshot is required.
type Metrics struct {
	currentPortfolioValue atomic.Uint64 // float64 bits
	dailyPnL              atomic.Uint64 // float64 bits, signed via math.Float64frombits
	dailyRealizedPnL      atomic.Uint64
	dailyUnrealizedPnL    atomic.Uint64

	dailyTrades    atomic.Uint64
	dailyOrders    atomic.Uint64
	rejectedOrders atomic.Uint64

	currentOrderRate   atomic.Uint64
	currentMessageRate atomic.Uint64
	activePositions    atomic.Int64

	tradingEnabled atomic.Bool
	emergencyStop  atomic.Bool
}

// NewMetrics returns metrics in their startup state: trading enabled, no
// emergency stop, everything else zero.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.tradingEnabled.Store(true)
	return m
}

func loadFloat(a *atomic.Uint64) float64  { return math.Float64frombits(a.Load()) }
func storeFloat(a *atomic.Uint64, v float64) { a.Store(math.Float64bits(v)) }

// CurrentPortfolioValue returns the last value pushed by UpdatePosition.
func (m *Metrics) CurrentPortfolioValue() float64 { return loadFloat(&m.currentPortfolioValue) }

// DailyPnL returns realized + unrealized P&L for the session.
func (m *Metrics) DailyPnL() float64 { return loadFloat(&m.dailyPnL) }

// DailyRealizedPnL returns the realized P&L component pushed by UpdatePnL.
func (m *Metrics) DailyRealizedPnL() float64 { return loadFloat(&m.dailyRealizedPnL) }

// DailyUnrealizedPnL returns the unrealized P&L component pushed by UpdatePnL.
func (m *Metrics) DailyUnrealizedPnL() float64 { return loadFloat(&m.dailyUnrealizedPnL) }

// TradingEnabled reports whether new orders may be admitted.
func (m *Metrics) TradingEnabled() bool { return m.tradingEnabled.Load() }

// EmergencyStop reports whether the emergency latch has tripped.
func (m *Metrics) EmergencyStop() bool { return m.emergencyStop.Load() }

// CurrentOrderRate returns the order count since the last decay tick.
func (m *Metrics) CurrentOrderRate() uint64 { return m.currentOrderRate.Load() }

// CurrentMessageRate returns the message count since the last decay tick.
func (m *Metrics) CurrentMessageRate() uint64 { return m.currentMessageRate.Load() }

// RejectedOrders returns the cumulative count of gate rejections.
func (m *Metrics) RejectedOrders() uint64 { return m.rejectedOrders.Load() }

// DailyOrders returns the cumulative count of gate admissions.
func (m *Metrics) DailyOrders() uint64 { return m.dailyOrders.Load() }

// DailyTrades returns the cumulative count of trades recorded via RecordTrade.
func (m *Metrics) DailyTrades() uint64 { return m.dailyTrades.Load() }

// ActivePositions returns the count of currently open positions.
func (m *Metrics) ActivePositions() int64 { return m.activePositions.Load() }

// UpdatePosition overwrites the current portfolio value. This is a
// deliberate simplification carried over from the reference implementation
// (a single scalar, not a per-symbol ledger).
func (m *Metrics) UpdatePosition(value float64) {
	storeFloat(&m.currentPortfolioValue, value)
}

// UpdatePnL sets realized, unrealized, and total daily P&L.
func (m *Metrics) UpdatePnL(realized, unrealized float64) {
	storeFloat(&m.dailyRealizedPnL, realized)
	storeFloat(&m.dailyUnrealizedPnL, unrealized)
	storeFloat(&m.dailyPnL, realized+unrealized)
}

// RecordMessage increments the message-rate counter, called once per
// dispatched market-data message.
func (m *Metrics) RecordMessage() { m.currentMessageRate.Add(1) }

// RecordTrade increments the daily trade counter.
func (m *Metrics) RecordTrade() { m.dailyTrades.Add(1) }

// SetActivePositions overwrites the active position count.
func (m *Metrics) SetActivePositions(n int64) { m.activePositions.Store(n) }

// Reset returns metrics to their startup state, for end-of-session resets.
func (m *Metrics) Reset() {
	storeFloat(&m.currentPortfolioValue, 0)
	storeFloat(&m.dailyPnL, 0)
	storeFloat(&m.dailyRealizedPnL, 0)
	storeFloat(&m.dailyUnrealizedPnL, 0)
	m.dailyTrades.Store(0)
	m.dailyOrders.Store(0)
	m.rejectedOrders.Store(0)
	m.currentOrderRate.Store(0)
	m.currentMessageRate.Store(0)
	m.activePositions.Store(0)
	m.tradingEnabled.Store(true)
	m.emergencyStop.Store(false)
}
