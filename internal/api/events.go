package api

import (
	"time"

	"riskmond/internal/protocol"
	"riskmond/internal/risk"
)

// NewTradeStreamEvent wraps a dispatched trade print for /stream.
func NewTradeStreamEvent(m protocol.TradeMessage) StreamEvent {
	return StreamEvent{Type: "trade", Timestamp: time.Now(), Data: m}
}

// NewQuoteStreamEvent wraps a dispatched quote update for /stream.
func NewQuoteStreamEvent(m protocol.QuoteMessage) StreamEvent {
	return StreamEvent{Type: "quote", Timestamp: time.Now(), Data: m}
}

// NewOrderUpdateStreamEvent wraps a dispatched order status change for /stream.
func NewOrderUpdateStreamEvent(m protocol.OrderUpdateMessage) StreamEvent {
	return StreamEvent{Type: "order_update", Timestamp: time.Now(), Data: m}
}

// NewReportStreamEvent wraps a periodic risk monitoring report for /stream.
func NewReportStreamEvent(r risk.Report) StreamEvent {
	return StreamEvent{Type: "report", Timestamp: r.GeneratedAt, Data: r}
}
