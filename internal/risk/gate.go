package risk

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"riskmond/internal/latency"
)

// Side is the direction of a candidate order.
type Side byte

const (
	Buy  Side = 'B'
	Sell Side = 'S'
)

// Gate is the synchronous pre-trade decision function. It is
// latency-critical: all five predicates execute against atomic reads, in
// constant time, with no lock held across the check. There is no
// transactional guarantee that the predicates observe a single consistent
// snapshot of Metrics — that's intentional (see SPEC_FULL.md §4.8); races
// at the boundary are tolerated because the monitoring loop re-checks and
// escalates independently.
type Gate struct {
	logger  *slog.Logger
	limits  Limits
	metrics *Metrics
	latency *latency.Tracker
}

// NewGate constructs a Gate over shared metrics and static limits.
func NewGate(logger *slog.Logger, limits Limits, metrics *Metrics, tracker *latency.Tracker) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{logger: logger, limits: limits, metrics: metrics, latency: tracker}
}

// Check evaluates the five ordered, short-circuiting predicates for a
// candidate order and returns whether it is admitted. Order value and
// portfolio value arithmetic is done in decimal.Decimal space to avoid
// float accumulation error across a long session; the wire-level
// price/quantity types feeding this call remain float64/u64 (SPEC_FULL.md
// §11.1).
func (g *Gate) Check(symbol string, side Side, price float64, quantity uint64) bool {
	start := time.Now()
	approved := true
	reason := ""

	orderValue := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))

	if !g.metrics.TradingEnabled() || g.metrics.EmergencyStop() {
		approved = false
		reason = "Trading disabled"
	}

	maxOrderValue := decimal.NewFromFloat(g.limits.MaxOrderValue)
	if approved && orderValue.GreaterThan(maxOrderValue) {
		approved = false
		reason = "Order value exceeds limit"
	}

	if approved && g.metrics.DailyPnL() < -g.limits.MaxDailyLoss {
		approved = false
		reason = "Daily loss limit breached"
		g.metrics.tradingEnabled.Store(false)
	}

	if approved && g.metrics.CurrentOrderRate() >= g.limits.MaxOrderRate {
		approved = false
		reason = "Order rate limit exceeded"
	}

	if approved {
		current := decimal.NewFromFloat(g.metrics.CurrentPortfolioValue())
		signed := orderValue
		if side == Sell {
			signed = signed.Neg()
		}
		projected := current.Add(signed)
		maxPortfolio := decimal.NewFromFloat(g.limits.MaxPortfolioValue)
		if projected.GreaterThan(maxPortfolio) {
			approved = false
			reason = "Portfolio value limit exceeded"
		}
	}

	if approved {
		g.metrics.dailyOrders.Add(1)
		g.metrics.currentOrderRate.Add(1)
	} else {
		g.metrics.rejectedOrders.Add(1)
		g.logger.Warn("order rejected by pre-trade risk gate",
			"symbol", symbol, "side", string(side), "order_value", orderValue.String(), "reason", reason)
	}

	if g.latency != nil {
		g.latency.Record(time.Since(start))
	}
	return approved
}

// Reset clears the emergency latch and re-enables trading. Intended for
// explicit operator action (end-of-session or manual recovery), not
// automatic recovery.
func (g *Gate) Reset() {
	g.metrics.tradingEnabled.Store(true)
	g.metrics.emergencyStop.Store(false)
}
