// Package config defines all configuration for the risk daemon. Config is
// loaded from a YAML file (default path from RISKMOND_CONFIG) with
// environment variable overrides via the RISKMOND_ prefix.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Transport    TransportConfig    `mapstructure:"transport"`
	SymbolMaster SymbolMasterConfig `mapstructure:"symbol_master"`
	RiskLimits   RiskLimitsConfig   `mapstructure:"risk_limits"`
	RateLimits   RateLimitsConfig   `mapstructure:"rate_limits"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	HTTP         HTTPConfig         `mapstructure:"http"`
	Snapshot     SnapshotConfig     `mapstructure:"snapshot"`
}

// TransportConfig points at the exchange feed. ConnectTimeout,
// ReadPollInterval and ReceiveBufferBytes are loaded and defaulted here, but
// the feed transport does not read them: it uses its own fixed 5s connect
// timeout, 1s read poll and 1 MiB socket receive buffer.
type TransportConfig struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	ConnectTimeout     time.Duration `mapstructure:"connect_timeout"`
	ReadPollInterval   time.Duration `mapstructure:"read_poll_interval"`
	ReceiveBufferBytes int           `mapstructure:"receive_buffer_bytes"`
}

// SymbolMasterConfig locates the instrument master (a local path or an
// http(s):// URL fetched through the resty-backed loader).
type SymbolMasterConfig struct {
	Source       string        `mapstructure:"source"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// RiskLimitsConfig mirrors risk.Limits for YAML/env overrides.
type RiskLimitsConfig struct {
	MaxOrderValue         float64 `mapstructure:"max_order_value"`
	MaxPortfolioValue     float64 `mapstructure:"max_portfolio_value"`
	MaxDailyLoss          float64 `mapstructure:"max_daily_loss"`
	MaxPositionValue      float64 `mapstructure:"max_position_value"`
	PositionConcentration float64 `mapstructure:"position_concentration"`
	SectorConcentration   float64 `mapstructure:"sector_concentration"`
	MaxOrderRate          uint64  `mapstructure:"max_order_rate"`
	MaxMessageRate        uint64  `mapstructure:"max_message_rate"`
}

// PriorityTierConfig is one HIGH/MEDIUM/LOW tier of the optional priority
// rate limiter.
type PriorityTierConfig struct {
	Burst         int     `mapstructure:"burst"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// RateLimitsConfig tunes the message token bucket, the connection sliding
// window, and the optional priority-tiered limiter.
type RateLimitsConfig struct {
	MessageRatePerSecond   float64             `mapstructure:"message_rate_per_second"`
	MessageBurst           float64             `mapstructure:"message_burst"`
	ConnectionRatePerMinute int                `mapstructure:"connection_rate_per_minute"`
	Priority               *PriorityRateLimits `mapstructure:"priority"`
}

// PriorityRateLimits configures all three tiers at once; a nil Priority
// field on RateLimitsConfig disables C15 entirely.
type PriorityRateLimits struct {
	High   PriorityTierConfig `mapstructure:"high"`
	Medium PriorityTierConfig `mapstructure:"medium"`
	Low    PriorityTierConfig `mapstructure:"low"`
}

// MonitoringConfig tunes the risk monitoring loop's cadence and thresholds.
type MonitoringConfig struct {
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	ReportInterval time.Duration `mapstructure:"report_interval"`
	WarnLow        float64       `mapstructure:"warn_low"`
	WarnHigh       float64       `mapstructure:"warn_high"`
}

// LoggingConfig selects the slog handler and level.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HTTPConfig controls the observability HTTP surface. AllowedOrigins
// restricts which Origins may open /stream; empty falls back to
// same-host/localhost only.
type HTTPConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	ListenAddr     string   `mapstructure:"listen_addr"`
	Stream         bool     `mapstructure:"stream"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SnapshotConfig controls where periodic risk reports are persisted.
type SnapshotConfig struct {
	Dir     string `mapstructure:"dir"`
	Enabled bool   `mapstructure:"enabled"`
}

// Load reads config from a YAML file with RISKMOND_* env var overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("RISKMOND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("transport.port", 9899)
	v.SetDefault("transport.connect_timeout", 5*time.Second)
	v.SetDefault("transport.read_poll_interval", time.Second)
	v.SetDefault("transport.receive_buffer_bytes", 1<<20)

	v.SetDefault("symbol_master.fetch_timeout", 10*time.Second)

	v.SetDefault("risk_limits.max_order_value", 5_000_000)
	v.SetDefault("risk_limits.max_portfolio_value", 50_000_000)
	v.SetDefault("risk_limits.max_daily_loss", 1_000_000)
	v.SetDefault("risk_limits.max_position_value", 10_000_000)
	v.SetDefault("risk_limits.position_concentration", 0.20)
	v.SetDefault("risk_limits.sector_concentration", 0.40)
	v.SetDefault("risk_limits.max_order_rate", 1000)
	v.SetDefault("risk_limits.max_message_rate", 10000)

	v.SetDefault("rate_limits.message_rate_per_second", 10000)
	v.SetDefault("rate_limits.message_burst", 10000)
	v.SetDefault("rate_limits.connection_rate_per_minute", 10)

	v.SetDefault("monitoring.tick_interval", 100*time.Millisecond)
	v.SetDefault("monitoring.report_interval", 30*time.Second)
	v.SetDefault("monitoring.warn_low", 0.8)
	v.SetDefault("monitoring.warn_high", 0.9)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.listen_addr", ":8090")
	v.SetDefault("http.stream", false)

	v.SetDefault("snapshot.dir", "./var/riskmond")
	v.SetDefault("snapshot.enabled", true)
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Transport.Host == "" {
		return fmt.Errorf("transport.host is required")
	}
	if c.Transport.Port <= 0 {
		return fmt.Errorf("transport.port must be > 0")
	}
	if c.SymbolMaster.Source == "" {
		return fmt.Errorf("symbol_master.source is required")
	}
	if c.RiskLimits.MaxOrderValue <= 0 {
		return fmt.Errorf("risk_limits.max_order_value must be > 0")
	}
	if c.RiskLimits.MaxPortfolioValue <= 0 {
		return fmt.Errorf("risk_limits.max_portfolio_value must be > 0")
	}
	if c.RiskLimits.MaxDailyLoss <= 0 {
		return fmt.Errorf("risk_limits.max_daily_loss must be > 0")
	}
	if c.RiskLimits.MaxOrderRate == 0 {
		return fmt.Errorf("risk_limits.max_order_rate must be > 0")
	}
	if c.RiskLimits.MaxMessageRate == 0 {
		return fmt.Errorf("risk_limits.max_message_rate must be > 0")
	}
	if c.RateLimits.MessageRatePerSecond <= 0 {
		return fmt.Errorf("rate_limits.message_rate_per_second must be > 0")
	}
	if c.Monitoring.TickInterval <= 0 {
		return fmt.Errorf("monitoring.tick_interval must be > 0")
	}
	if c.Monitoring.ReportInterval <= 0 {
		return fmt.Errorf("monitoring.report_interval must be > 0")
	}
	if c.HTTP.Enabled && c.HTTP.ListenAddr == "" {
		return fmt.Errorf("http.listen_addr is required when http.enabled")
	}
	return nil
}
