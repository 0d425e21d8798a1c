package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"riskmond/internal/latency"
	"riskmond/internal/risk"
)

// metricsCollector is a prometheus.Collector that reads risk.Metrics and a
// latency.Tracker snapshot on every scrape rather than maintaining its own
// duplicate counters — the gate and monitor remain the single source of
// truth, this just projects them.
type metricsCollector struct {
	metrics *risk.Metrics
	latency *latency.Tracker

	portfolioValue     *prometheus.Desc
	dailyPnL           *prometheus.Desc
	dailyRealizedPnL   *prometheus.Desc
	dailyUnrealizedPnL *prometheus.Desc
	dailyTrades        *prometheus.Desc
	dailyOrders        *prometheus.Desc
	rejectedOrders     *prometheus.Desc
	orderRate          *prometheus.Desc
	messageRate        *prometheus.Desc
	tradingEnabled     *prometheus.Desc
	emergencyStop      *prometheus.Desc
	latencyMean        *prometheus.Desc
	latencyMax         *prometheus.Desc
	latencyP95         *prometheus.Desc
	latencyP99         *prometheus.Desc
}

func newMetricsCollector(metrics *risk.Metrics, tracker *latency.Tracker) *metricsCollector {
	ns := "riskmond"
	return &metricsCollector{
		metrics:            metrics,
		latency:            tracker,
		portfolioValue:     prometheus.NewDesc(ns+"_portfolio_value", "Current portfolio value.", nil, nil),
		dailyPnL:           prometheus.NewDesc(ns+"_daily_pnl", "Realized plus unrealized P&L for the session.", nil, nil),
		dailyRealizedPnL:   prometheus.NewDesc(ns+"_daily_realized_pnl", "Realized P&L for the session.", nil, nil),
		dailyUnrealizedPnL: prometheus.NewDesc(ns+"_daily_unrealized_pnl", "Unrealized P&L for the session.", nil, nil),
		dailyTrades:        prometheus.NewDesc(ns+"_daily_trades_total", "Cumulative recorded trades.", nil, nil),
		dailyOrders:        prometheus.NewDesc(ns+"_daily_orders_total", "Cumulative gate admissions.", nil, nil),
		rejectedOrders:     prometheus.NewDesc(ns+"_rejected_orders_total", "Cumulative gate rejections.", nil, nil),
		orderRate:          prometheus.NewDesc(ns+"_order_rate", "Orders admitted since the last decay tick.", nil, nil),
		messageRate:        prometheus.NewDesc(ns+"_message_rate", "Messages dispatched since the last decay tick.", nil, nil),
		tradingEnabled:     prometheus.NewDesc(ns+"_trading_enabled", "1 if new orders may be admitted.", nil, nil),
		emergencyStop:      prometheus.NewDesc(ns+"_emergency_stop", "1 if the emergency latch has tripped.", nil, nil),
		latencyMean:        prometheus.NewDesc(ns+"_gate_latency_mean_seconds", "Mean pre-trade gate check latency.", nil, nil),
		latencyMax:         prometheus.NewDesc(ns+"_gate_latency_max_seconds", "Max pre-trade gate check latency.", nil, nil),
		latencyP95:         prometheus.NewDesc(ns+"_gate_latency_p95_seconds", "P95 pre-trade gate check latency.", nil, nil),
		latencyP99:         prometheus.NewDesc(ns+"_gate_latency_p99_seconds", "P99 pre-trade gate check latency.", nil, nil),
	}
}

func (c *metricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.portfolioValue
	ch <- c.dailyPnL
	ch <- c.dailyRealizedPnL
	ch <- c.dailyUnrealizedPnL
	ch <- c.dailyTrades
	ch <- c.dailyOrders
	ch <- c.rejectedOrders
	ch <- c.orderRate
	ch <- c.messageRate
	ch <- c.tradingEnabled
	ch <- c.emergencyStop
	ch <- c.latencyMean
	ch <- c.latencyMax
	ch <- c.latencyP95
	ch <- c.latencyP99
}

func (c *metricsCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.metrics
	ch <- prometheus.MustNewConstMetric(c.portfolioValue, prometheus.GaugeValue, m.CurrentPortfolioValue())
	ch <- prometheus.MustNewConstMetric(c.dailyPnL, prometheus.GaugeValue, m.DailyPnL())
	ch <- prometheus.MustNewConstMetric(c.dailyRealizedPnL, prometheus.GaugeValue, m.DailyRealizedPnL())
	ch <- prometheus.MustNewConstMetric(c.dailyUnrealizedPnL, prometheus.GaugeValue, m.DailyUnrealizedPnL())
	ch <- prometheus.MustNewConstMetric(c.dailyTrades, prometheus.CounterValue, float64(m.DailyTrades()))
	ch <- prometheus.MustNewConstMetric(c.dailyOrders, prometheus.CounterValue, float64(m.DailyOrders()))
	ch <- prometheus.MustNewConstMetric(c.rejectedOrders, prometheus.CounterValue, float64(m.RejectedOrders()))
	ch <- prometheus.MustNewConstMetric(c.orderRate, prometheus.GaugeValue, float64(m.CurrentOrderRate()))
	ch <- prometheus.MustNewConstMetric(c.messageRate, prometheus.GaugeValue, float64(m.CurrentMessageRate()))
	ch <- prometheus.MustNewConstMetric(c.tradingEnabled, prometheus.GaugeValue, boolToFloat(m.TradingEnabled()))
	ch <- prometheus.MustNewConstMetric(c.emergencyStop, prometheus.GaugeValue, boolToFloat(m.EmergencyStop()))

	if c.latency != nil {
		snap := c.latency.Snapshot()
		ch <- prometheus.MustNewConstMetric(c.latencyMean, prometheus.GaugeValue, snap.Mean.Seconds())
		ch <- prometheus.MustNewConstMetric(c.latencyMax, prometheus.GaugeValue, snap.Max.Seconds())
		ch <- prometheus.MustNewConstMetric(c.latencyP95, prometheus.GaugeValue, snap.P95.Seconds())
		ch <- prometheus.MustNewConstMetric(c.latencyP99, prometheus.GaugeValue, snap.P99.Seconds())
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
