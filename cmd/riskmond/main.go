// riskmond is the real-time market-data ingestion and pre-trade risk
// daemon for an NSE-like exchange feed.
//
// Architecture:
//
//	main.go                 — entry point: loads config, wires every
//	                          component, waits for SIGINT/SIGTERM
//	internal/protocol       — binary wire framing and message decode
//	internal/feed           — TCP transport + handler facade (C6, C7)
//	internal/symbols        — instrument master registry (C3, C17)
//	internal/ratelimit      — token bucket, sliding window, priority tiers
//	internal/risk           — shared metrics, pre-trade gate, monitor loop
//	internal/latency        — rolling gate-latency tracker
//	internal/snapshot       — crash-safe report persistence (C18)
//	internal/api            — HTTP observability surface (C14)
//
// Data flow: the feed transport reads bytes off the wire, the parser frames
// them into typed messages, the handler facade dispatches those to this
// file's subscriptions, which record risk metrics and forward events onto
// the optional live stream. The monitor loop runs in parallel, decaying
// rate counters, escalating to an emergency stop on a daily-loss breach,
// and periodically snapshotting a report to disk and to /snapshot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"riskmond/internal/api"
	"riskmond/internal/config"
	"riskmond/internal/feed"
	"riskmond/internal/latency"
	"riskmond/internal/protocol"
	"riskmond/internal/ratelimit"
	"riskmond/internal/risk"
	"riskmond/internal/snapshot"
	"riskmond/internal/symbols"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("RISKMOND_CONFIG"); p != "" {
		cfgPath = p
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to config YAML")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	if err := run(cfg, logger); err != nil {
		logger.Error("riskmond exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	registry := symbols.New(logger)
	registry.LoadSource(cfg.SymbolMaster.Source, cfg.SymbolMaster.FetchTimeout)
	logger.Info("symbol master loaded", "count", registry.Count())

	limits := risk.Limits{
		MaxPositionValue:      cfg.RiskLimits.MaxPositionValue,
		MaxPortfolioValue:     cfg.RiskLimits.MaxPortfolioValue,
		MaxDailyLoss:          cfg.RiskLimits.MaxDailyLoss,
		MaxOrderValue:         cfg.RiskLimits.MaxOrderValue,
		PositionConcentration: cfg.RiskLimits.PositionConcentration,
		SectorConcentration:   cfg.RiskLimits.SectorConcentration,
		MaxOrderRate:          cfg.RiskLimits.MaxOrderRate,
		MaxMessageRate:        cfg.RiskLimits.MaxMessageRate,
	}
	if err := limits.Validate(); err != nil {
		return fmt.Errorf("risk limits: %w", err)
	}

	messageLimiter := ratelimit.NewTokenBucket(cfg.RateLimits.MessageBurst, cfg.RateLimits.MessageRatePerSecond)
	connectionLimiter := ratelimit.NewSlidingWindow(cfg.RateLimits.ConnectionRatePerMinute, time.Minute)

	var priorityLimiter *ratelimit.PriorityLimiter
	if cfg.RateLimits.Priority != nil {
		p := cfg.RateLimits.Priority
		priorityLimiter = ratelimit.NewPriorityLimiter(
			ratelimit.TierConfig{Burst: p.High.Burst, RatePerSecond: p.High.RatePerSecond},
			ratelimit.TierConfig{Burst: p.Medium.Burst, RatePerSecond: p.Medium.RatePerSecond},
			ratelimit.TierConfig{Burst: p.Low.Burst, RatePerSecond: p.Low.RatePerSecond},
		)
		logger.Info("priority rate limiter enabled")
	}

	metrics := risk.NewMetrics()
	tracker := latency.New(0)
	// The gate itself has no caller in this binary: it is the library entry
	// point an external order-management system consults before submission.
	// Constructing it here wires it to the same metrics/limits/tracker this
	// daemon already owns, ready to be handed off (e.g. via an embedding
	// package) without this process having an order path of its own.
	gate := risk.NewGate(logger, limits, metrics, tracker)
	_ = gate

	var snapStore *snapshot.Store
	if cfg.Snapshot.Enabled {
		store, err := snapshot.Open(cfg.Snapshot.Dir)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		snapStore = store
		if prior, err := snapStore.Load(); err != nil {
			logger.Warn("failed to load prior snapshot", "error", err)
		} else if prior != nil {
			logger.Info("resumed from prior snapshot", "generated_at", prior.GeneratedAt)
		}
	}

	var reports reportHolder
	var feedHandler *feed.Handler

	apiServer := api.NewServer(api.Options{
		ListenAddr:     cfg.HTTP.ListenAddr,
		Stream:         cfg.HTTP.Stream,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		IsConnected:    func() bool { return feedHandler != nil && feedHandler.IsConnected() },
		LatestReport:   reports.get,
	}, metrics, tracker, logger)

	subs := feed.Subscriptions{
		OnTrade: func(m protocol.TradeMessage) {
			metrics.RecordTrade()
			if cfg.HTTP.Stream {
				apiServer.Broadcast(api.NewTradeStreamEvent(m))
			}
		},
		OnQuote: func(m protocol.QuoteMessage) {
			if cfg.HTTP.Stream {
				apiServer.Broadcast(api.NewQuoteStreamEvent(m))
			}
		},
		OnOrderUpdate: func(m protocol.OrderUpdateMessage) {
			if cfg.HTTP.Stream {
				apiServer.Broadcast(api.NewOrderUpdateStreamEvent(m))
			}
		},
	}

	if priorityLimiter != nil {
		feedHandler = feed.NewPrioritizedHandler(logger, metrics, subs, messageLimiter, connectionLimiter,
			priorityLimiter, ratelimit.TierHigh)
	} else {
		feedHandler = feed.NewHandler(logger, metrics, subs, messageLimiter, connectionLimiter)
	}

	monitor := risk.NewMonitor(logger, limits, metrics, tracker,
		cfg.Monitoring.TickInterval, cfg.Monitoring.ReportInterval,
		cfg.Monitoring.WarnLow, cfg.Monitoring.WarnHigh,
		func(r risk.Report) {
			reports.set(r)
			if cfg.HTTP.Stream {
				apiServer.Broadcast(api.NewReportStreamEvent(r))
			}
			if snapStore != nil {
				if err := snapStore.Save(r); err != nil {
					logger.Error("failed to persist risk report", "error", err)
				}
			}
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	if cfg.HTTP.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := apiServer.Start(); err != nil {
				logger.Error("observability server failed", "error", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()

	if err := feedHandler.Start(ctx, cfg.Transport.Host, cfg.Transport.Port); err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("start feed: %w", err)
	}
	logger.Info("riskmond started", "feed", fmt.Sprintf("%s:%d", cfg.Transport.Host, cfg.Transport.Port),
		"symbols", registry.Count(), "http_addr", cfg.HTTP.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	if cfg.HTTP.Enabled {
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop observability server", "error", err)
		}
	}
	feedHandler.Stop()
	cancel()
	wg.Wait()

	return nil
}

// reportHolder is the single point of truth for "the latest risk report"
// shared between the monitor loop (writer) and the /snapshot handler's
// LatestReport closure (reader).
type reportHolder struct {
	mu sync.RWMutex
	r  *risk.Report
}

func (h *reportHolder) set(r risk.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := r
	h.r = &cp
}

func (h *reportHolder) get() *risk.Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.r
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
