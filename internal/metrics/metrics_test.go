package metrics

import (
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(mfs) == 0 {
		t.Error("expected runtime metrics to be registered")
	}
}

func TestRegistry_MonitoringMetrics(t *testing.T) {
	reg := NewRegistry()

	reg.MonitorStarted()
	reg.RecordPriceCheck("AAPL", 0.02)
	reg.RecordAlert("AAPL")
	reg.RecordPollFailure("MSFT")
	reg.RecordGatewayRetry("get_quote")
	reg.MonitorFinished("completed")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	want := map[string]bool{
		"vigil_price_checks_total":    false,
		"vigil_alerts_fired_total":    false,
		"vigil_poll_failures_total":   false,
		"vigil_gateway_retries_total": false,
		"vigil_monitors_active":       false,
		"vigil_monitor_runs_total":    false,
		"vigil_poll_duration_seconds": false,
	}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected metric %s to be gathered", name)
		}
	}
}

func TestRegistry_AlertCounterValue(t *testing.T) {
	reg := NewRegistry()

	reg.RecordAlert("AAPL")
	reg.RecordAlert("AAPL")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() != "vigil_alerts_fired_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if got := m.GetCounter().GetValue(); got != 2 {
				t.Errorf("expected counter value 2, got %f", got)
			}
		}
		return
	}
	t.Error("expected vigil_alerts_fired_total metric")
}
