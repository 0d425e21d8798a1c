package risk

import "testing"

func TestDefaultLimitsValidate(t *testing.T) {
	t.Parallel()
	if err := DefaultLimits().Validate(); err != nil {
		t.Errorf("DefaultLimits() should validate cleanly: %v", err)
	}
}

func TestValidateRejectsNonPositiveOrderValue(t *testing.T) {
	t.Parallel()
	l := DefaultLimits()
	l.MaxOrderValue = 0
	if err := l.Validate(); err == nil {
		t.Error("expected error for zero max_order_value")
	}
}

func TestValidateRejectsZeroRates(t *testing.T) {
	t.Parallel()
	l := DefaultLimits()
	l.MaxOrderRate = 0
	if err := l.Validate(); err == nil {
		t.Error("expected error for zero max_order_rate")
	}

	l = DefaultLimits()
	l.MaxMessageRate = 0
	if err := l.Validate(); err == nil {
		t.Error("expected error for zero max_message_rate")
	}
}
