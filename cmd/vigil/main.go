package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harlowe/vigil/internal/config"

	// Register the bundled providers with the gateway factories.
	_ "github.com/harlowe/vigil/internal/marketdata/mock"
	_ "github.com/harlowe/vigil/internal/trading/ledger"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "VIGIL - price monitoring and simulated trading",
	Long: `VIGIL supervises instrument prices over a bounded window, alerts on
significant moves, and reconciles simulated trading activity against a
mock brokerage ledger.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig returns the file config when --config is set, defaults
// otherwise, validated either way.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
