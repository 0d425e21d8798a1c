package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"riskmond/internal/risk"
)

func TestStoreSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	want := risk.Report{
		PortfolioValue: 12345.67,
		DailyPnL:       -500,
		DailyTrades:    3,
		TradingEnabled: true,
		GeneratedAt:    time.Unix(1000, 0).UTC(),
	}
	if err := s.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil {
		t.Fatal("Load() returned nil after a Save")
	}
	if got.PortfolioValue != want.PortfolioValue || got.DailyPnL != want.DailyPnL || got.DailyTrades != want.DailyTrades {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestStoreLoadWithoutSaveReturnsNil(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != nil {
		t.Errorf("Load() = %+v, want nil with no prior Save", got)
	}
}

func TestStoreSaveLeavesNoTmpFileBehind(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Save(risk.Report{DailyPnL: 1}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "latest.json.tmp")); !os.IsNotExist(err) {
		t.Errorf("expected .tmp file to be renamed away, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "latest.json")); err != nil {
		t.Errorf("expected latest.json to exist: %v", err)
	}
}
