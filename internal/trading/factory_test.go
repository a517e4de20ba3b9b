package trading_test

import (
	"errors"
	"testing"

	"github.com/harlowe/vigil/internal/config"
	"github.com/harlowe/vigil/internal/core"
	"github.com/harlowe/vigil/internal/trading"
	_ "github.com/harlowe/vigil/internal/trading/ledger"
)

func TestNew_Mock(t *testing.T) {
	g, err := trading.New(config.BrokerConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Name() != "mock" {
		t.Errorf("expected provider name mock, got %s", g.Name())
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := trading.New(config.BrokerConfig{Provider: "ibkr"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !errors.Is(err, core.ErrProviderUnknown) {
		t.Errorf("expected ErrProviderUnknown, got %v", err)
	}
}

func TestProviders_ContainsMock(t *testing.T) {
	names := trading.Providers()
	found := false
	for _, n := range names {
		if n == "mock" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected mock in registered providers, got %v", names)
	}
}
