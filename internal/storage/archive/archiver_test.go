package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harlowe/vigil/internal/monitor"
)

func TestArchiver_SaveLoadResult(t *testing.T) {
	store, _ := NewLocalFS(t.TempDir())
	a := NewArchiver(store, nil)
	ctx := context.Background()

	res := monitor.Result{
		Success:             true,
		Symbol:              "AAPL",
		Duration:            time.Minute,
		PollInterval:        time.Second,
		InitialPrice:        150.0,
		FinalPrice:          160.0,
		TotalChangePercent:  6.67,
		TotalPriceChecks:    3,
		TotalAlerts:         1,
		MonitoringCompleted: true,
	}

	path, err := a.SaveResult(ctx, "run-1", res)
	if err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if !strings.HasPrefix(path, "results/AAPL/") || !strings.HasSuffix(path, "_run-1.json") {
		t.Errorf("unexpected archive path: %s", path)
	}

	got, err := a.LoadResult(ctx, path)
	if err != nil {
		t.Fatalf("LoadResult: %v", err)
	}
	if got.Symbol != "AAPL" || got.FinalPrice != 160.0 || !got.MonitoringCompleted {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestArchiver_ListResults(t *testing.T) {
	store, _ := NewLocalFS(t.TempDir())
	a := NewArchiver(store, nil)
	ctx := context.Background()

	a.SaveResult(ctx, "r1", monitor.Result{Symbol: "AAPL"})
	a.SaveResult(ctx, "r2", monitor.Result{Symbol: "AAPL"})
	a.SaveResult(ctx, "r3", monitor.Result{Symbol: "MSFT"})

	aapl, err := a.ListResults(ctx, "AAPL")
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(aapl) != 2 {
		t.Errorf("expected 2 AAPL results, got %d", len(aapl))
	}

	all, _ := a.ListResults(ctx, "")
	if len(all) != 3 {
		t.Errorf("expected 3 results total, got %d", len(all))
	}
}

func TestArchiver_SaveSummary(t *testing.T) {
	store, _ := NewLocalFS(t.TempDir())
	a := NewArchiver(store, nil)
	ctx := context.Background()

	summary := monitor.Summary{
		Success:            true,
		TotalSymbols:       2,
		SuccessfulMonitors: 2,
		Results: map[string]monitor.Result{
			"AAPL": {Success: true, Symbol: "AAPL"},
			"MSFT": {Success: true, Symbol: "MSFT"},
		},
	}

	path, err := a.SaveSummary(ctx, summary)
	if err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}

	exists, _ := store.Exists(ctx, path)
	if !exists {
		t.Errorf("summary not written at %s", path)
	}
}
