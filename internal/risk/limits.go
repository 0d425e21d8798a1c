// Package risk implements the shared risk metrics state, the synchronous
// pre-trade gate, and the background monitoring loop that decays rate
// counters and escalates to an emergency stop.
package risk

// Limits holds the static, immutable-after-init risk thresholds. Defaults
// below mirror the reference risk monitor's configured values for an
// NSE-like single-session book.
type Limits struct {
	MaxPositionValue     float64
	MaxPortfolioValue    float64
	MaxDailyLoss         float64
	MaxOrderValue        float64
	PositionConcentration float64
	SectorConcentration   float64
	MaxOrderRate         uint64 // orders/sec
	MaxMessageRate       uint64 // messages/sec
}

// DefaultLimits returns the reference implementation's default thresholds,
// in INR.
func DefaultLimits() Limits {
	return Limits{
		MaxPositionValue:      10_000_000.0,
		MaxPortfolioValue:     50_000_000.0,
		MaxDailyLoss:          1_000_000.0,
		MaxOrderValue:         5_000_000.0,
		PositionConcentration: 0.20,
		SectorConcentration:   0.40,
		MaxOrderRate:          1000,
		MaxMessageRate:        10000,
	}
}

// Validate reports whether the limits are usable: every value threshold
// must be positive and every rate must be nonzero.
func (l Limits) Validate() error {
	switch {
	case l.MaxOrderValue <= 0:
		return errInvalid("max_order_value must be positive")
	case l.MaxPortfolioValue <= 0:
		return errInvalid("max_portfolio_value must be positive")
	case l.MaxDailyLoss <= 0:
		return errInvalid("max_daily_loss must be positive")
	case l.MaxPositionValue <= 0:
		return errInvalid("max_position_value must be positive")
	case l.MaxOrderRate == 0:
		return errInvalid("max_order_rate must be nonzero")
	case l.MaxMessageRate == 0:
		return errInvalid("max_message_rate must be nonzero")
	}
	return nil
}

type errInvalid string

func (e errInvalid) Error() string { return string(e) }
