package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harlowe/vigil/internal/logger"
	"github.com/harlowe/vigil/internal/marketdata"
)

var quoteCmd = &cobra.Command{
	Use:   "quote SYMBOL",
	Short: "Fetch the current quote for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuote,
}

var quoteValidateCmd = &cobra.Command{
	Use:   "validate SYMBOL",
	Short: "Check whether a symbol is tradeable",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuoteValidate,
}

var quoteSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search instruments by symbol or name",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuoteSearch,
}

var quoteHistoryCmd = &cobra.Command{
	Use:   "history SYMBOL",
	Short: "Show recent daily bars",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuoteHistory,
}

var historyDays int

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.AddCommand(quoteValidateCmd)
	quoteCmd.AddCommand(quoteSearchCmd)
	quoteCmd.AddCommand(quoteHistoryCmd)

	quoteHistoryCmd.Flags().IntVar(&historyDays, "days", 10, "number of daily bars")
}

// withMarketData handles common gateway setup for quote subcommands.
func withMarketData(fn func(gw marketdata.Gateway, log *zap.Logger) error) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gw, err := marketdata.New(cfg.Broker)
	if err != nil {
		return err
	}
	return fn(gw, log)
}

func runQuote(cmd *cobra.Command, args []string) error {
	return withMarketData(func(gw marketdata.Gateway, log *zap.Logger) error {
		quote, err := gw.GetQuote(context.Background(), strings.ToUpper(args[0]))
		if err != nil {
			return fmt.Errorf("getting quote: %w", err)
		}

		fmt.Printf("%s  $%.2f  (bid %.2f / ask %.2f)  vol %d  %s\n",
			quote.Symbol, quote.Price, quote.Bid, quote.Ask, quote.Volume,
			quote.Time.Format("15:04:05"))
		return nil
	})
}

func runQuoteValidate(cmd *cobra.Command, args []string) error {
	return withMarketData(func(gw marketdata.Gateway, log *zap.Logger) error {
		symbol := strings.ToUpper(args[0])
		ok, err := gw.ValidateSymbol(context.Background(), symbol)
		if err != nil {
			return fmt.Errorf("validating symbol: %w", err)
		}
		if ok {
			fmt.Printf("%s is valid.\n", symbol)
		} else {
			fmt.Printf("%s is not a known symbol.\n", symbol)
		}
		return nil
	})
}

func runQuoteSearch(cmd *cobra.Command, args []string) error {
	return withMarketData(func(gw marketdata.Gateway, log *zap.Logger) error {
		results, err := gw.SearchSymbols(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("searching symbols: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tNAME\tEXCHANGE\t")
		for _, info := range results {
			fmt.Fprintf(w, "%s\t%s\t%s\t\n", info.Symbol, info.Name, info.Exchange)
		}
		w.Flush()
		return nil
	})
}

func runQuoteHistory(cmd *cobra.Command, args []string) error {
	return withMarketData(func(gw marketdata.Gateway, log *zap.Logger) error {
		symbol := strings.ToUpper(args[0])
		end := time.Now()
		start := end.AddDate(0, 0, -(historyDays - 1))

		bars, err := gw.GetHistory(context.Background(), symbol, start, end, "1Day")
		if err != nil {
			return fmt.Errorf("getting history: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tOPEN\tHIGH\tLOW\tCLOSE\tVOLUME\t")
		for _, b := range bars {
			fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t\n",
				b.Time.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.Volume)
		}
		w.Flush()

		log.Info("history fetched", zap.String("symbol", symbol), zap.Int("bars", len(bars)))
		return nil
	})
}
