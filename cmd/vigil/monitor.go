package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harlowe/vigil/internal/logger"
	"github.com/harlowe/vigil/internal/marketdata"
	"github.com/harlowe/vigil/internal/metrics"
	"github.com/harlowe/vigil/internal/monitor"
	"github.com/harlowe/vigil/internal/storage/archive"
	"github.com/harlowe/vigil/internal/storage/checkpoint"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor SYMBOL [SYMBOL...]",
	Short: "Monitor instrument prices and alert on significant moves",
	Long: `Monitor starts one supervisor per symbol, samples prices on a fixed
cadence until the duration expires, and prints an aggregate summary.
Ctrl-C stops all monitors gracefully at their next cycle boundary.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMonitor,
}

var (
	monitorDuration  time.Duration
	monitorInterval  time.Duration
	monitorThreshold float64
	monitorMetrics   bool
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorDuration, "duration", 0, "monitoring window (default from config)")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "poll interval (default from config)")
	monitorCmd.Flags().Float64Var(&monitorThreshold, "threshold", 0, "alert threshold fraction, e.g. 0.05 (default from config)")
	monitorCmd.Flags().BoolVar(&monitorMetrics, "metrics", false, "serve prometheus metrics while monitoring")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	params := monitor.Params{
		Duration:     cfg.Monitor.Duration,
		PollInterval: cfg.Monitor.PollInterval,
		Threshold:    cfg.Monitor.Threshold,
	}
	if monitorDuration > 0 {
		params.Duration = monitorDuration
	}
	if monitorInterval > 0 {
		params.PollInterval = monitorInterval
	}
	if monitorThreshold > 0 {
		params.Threshold = monitorThreshold
	}

	gateway, err := marketdata.New(cfg.Broker)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	if cfg.Metrics.Enabled || monitorMetrics {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			log.Info("metrics listener started", zap.String("addr", cfg.Metrics.Addr))
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				log.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	coord := monitor.NewCoordinator(gateway,
		monitor.WithCoordinatorLogger(log),
		monitor.WithCoordinatorMetrics(reg),
		monitor.WithCoordinatorCheckpoints(checkpoint.NewMemoryStore()),
	)

	// Ctrl-C cancels the context; supervisors stop at cycle boundaries.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("stop requested, waiting for monitors to finish their cycle")
		cancel()
	}()

	summary := coord.Run(ctx, args, params)
	printSummary(summary)

	if cfg.Archive.Enabled {
		store, err := archive.NewFromConfig(cfg.Archive)
		if err != nil {
			return err
		}
		archiver := archive.NewArchiver(store, log)
		if path, err := archiver.SaveSummary(context.Background(), summary); err != nil {
			log.Warn("archiving summary failed", zap.Error(err))
		} else {
			fmt.Printf("\nSummary archived to %s\n", path)
		}
	}
	return nil
}

func printSummary(summary monitor.Summary) {
	fmt.Println()
	fmt.Println("Monitoring Summary")
	fmt.Println("------------------")
	fmt.Printf("Symbols:    %d\n", summary.TotalSymbols)
	fmt.Printf("Successful: %d\n", summary.SuccessfulMonitors)
	fmt.Printf("Failed:     %d\n", summary.FailedMonitors)
	fmt.Printf("Alerts:     %d\n", summary.TotalAlerts)
	fmt.Println()

	symbols := make([]string, 0, len(summary.Results))
	for symbol := range summary.Results {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tRESULT\tINITIAL\tFINAL\tCHANGE\tCHECKS\tALERTS\t")
	fmt.Fprintln(w, "------\t------\t-------\t-----\t------\t------\t------\t")
	for _, symbol := range symbols {
		res := summary.Results[symbol]
		if !res.Success {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\t-\t-\t%s\n", symbol, res.Error)
			continue
		}
		outcome := "OK"
		if !res.MonitoringCompleted {
			outcome = "STOPPED"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%+.2f%%\t%d\t%d\t\n",
			symbol, outcome, res.InitialPrice, res.FinalPrice,
			res.TotalChangePercent, res.TotalPriceChecks, res.TotalAlerts)
	}
	w.Flush()
}
