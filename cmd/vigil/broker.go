package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harlowe/vigil/internal/logger"
	"github.com/harlowe/vigil/internal/trading"
)

var brokerCmd = &cobra.Command{
	Use:   "broker",
	Short: "Broker operations",
	Long:  `Commands for interacting with the trading gateway (orders, positions, account).`,
}

var brokerAccountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show account information",
	RunE:  runBrokerAccount,
}

var brokerPositionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List current positions",
	RunE:  runBrokerPositions,
}

var brokerOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List orders",
	RunE:  runBrokerOrders,
}

var brokerPlaceCmd = &cobra.Command{
	Use:   "place SYMBOL",
	Short: "Place an order",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrokerPlace,
}

var brokerCancelCmd = &cobra.Command{
	Use:   "cancel ORDER_ID",
	Short: "Cancel an order",
	Args:  cobra.ExactArgs(1),
	RunE:  runBrokerCancel,
}

var (
	ordersStatus string
	ordersSymbol string

	placeSide      string
	placeType      string
	placeQuantity  int64
	placePrice     float64
	placeStopPrice float64
)

func init() {
	rootCmd.AddCommand(brokerCmd)
	brokerCmd.AddCommand(brokerAccountCmd)
	brokerCmd.AddCommand(brokerPositionsCmd)
	brokerCmd.AddCommand(brokerOrdersCmd)
	brokerCmd.AddCommand(brokerPlaceCmd)
	brokerCmd.AddCommand(brokerCancelCmd)

	brokerOrdersCmd.Flags().StringVar(&ordersStatus, "status", "", "filter by status (pending, filled, cancelled)")
	brokerOrdersCmd.Flags().StringVar(&ordersSymbol, "symbol", "", "filter by symbol")

	brokerPlaceCmd.Flags().StringVar(&placeSide, "side", "buy", "order side (buy, sell)")
	brokerPlaceCmd.Flags().StringVar(&placeType, "type", "market", "order type (market, limit, stop, stop_limit)")
	brokerPlaceCmd.Flags().Int64Var(&placeQuantity, "quantity", 0, "number of shares")
	brokerPlaceCmd.Flags().Float64Var(&placePrice, "price", 0, "limit price")
	brokerPlaceCmd.Flags().Float64Var(&placeStopPrice, "stop-price", 0, "stop trigger price")
	brokerPlaceCmd.MarkFlagRequired("quantity")
}

// withTradingGateway handles common gateway setup for broker subcommands.
func withTradingGateway(fn func(gw trading.Gateway, log *zap.Logger) error) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gw, err := trading.New(cfg.Broker)
	if err != nil {
		return err
	}
	return fn(gw, log)
}

func runBrokerAccount(cmd *cobra.Command, args []string) error {
	return withTradingGateway(func(gw trading.Gateway, log *zap.Logger) error {
		acct, err := gw.GetAccount(context.Background())
		if err != nil {
			return fmt.Errorf("getting account: %w", err)
		}

		fmt.Println("Account Summary")
		fmt.Println("---------------")
		fmt.Printf("Account ID:      %s\n", acct.ID)
		fmt.Printf("Cash:            $%.2f\n", acct.Cash)
		fmt.Printf("Buying Power:    $%.2f\n", acct.BuyingPower)
		fmt.Printf("Portfolio Value: $%.2f\n", acct.PortfolioValue)
		fmt.Printf("Day Trades:      %d\n", acct.DayTradeCount)
		return nil
	})
}

func runBrokerPositions(cmd *cobra.Command, args []string) error {
	return withTradingGateway(func(gw trading.Gateway, log *zap.Logger) error {
		positions, err := gw.GetPositions(context.Background())
		if err != nil {
			return fmt.Errorf("getting positions: %w", err)
		}

		if len(positions) == 0 {
			fmt.Println("No positions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tSIDE\tQTY\tAVG COST\tMKT VALUE\tP&L\t")
		fmt.Fprintln(w, "------\t----\t---\t--------\t---------\t---\t")
		for _, p := range positions {
			sign := ""
			if p.UnrealizedPnL >= 0 {
				sign = "+"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%s%.2f\t\n",
				p.Symbol, p.Side, p.Quantity, p.AvgCost, p.MarketValue, sign, p.UnrealizedPnL)
		}
		w.Flush()

		log.Info("positions listed", zap.Int("count", len(positions)))
		return nil
	})
}

func runBrokerOrders(cmd *cobra.Command, args []string) error {
	return withTradingGateway(func(gw trading.Gateway, log *zap.Logger) error {
		filter := trading.OrderFilter{
			Status: trading.OrderStatus(strings.ToLower(ordersStatus)),
			Symbol: strings.ToUpper(ordersSymbol),
		}
		orders, err := gw.GetOrders(context.Background(), filter)
		if err != nil {
			return fmt.Errorf("getting orders: %w", err)
		}

		if len(orders) == 0 {
			fmt.Println("No orders found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ORDER ID\tSYMBOL\tSIDE\tTYPE\tQTY\tFILLED\tPRICE\tSTATUS\t")
		fmt.Fprintln(w, "--------\t------\t----\t----\t---\t------\t-----\t------\t")
		for _, o := range orders {
			price := o.Price
			if o.FilledPrice > 0 {
				price = o.FilledPrice
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.2f\t%s\t\n",
				o.ID, o.Symbol, o.Side, o.Type, o.Quantity, o.FilledQuantity, price, o.Status)
		}
		w.Flush()

		log.Info("orders listed", zap.Int("count", len(orders)))
		return nil
	})
}

func runBrokerPlace(cmd *cobra.Command, args []string) error {
	return withTradingGateway(func(gw trading.Gateway, log *zap.Logger) error {
		req := trading.OrderRequest{
			Symbol:    strings.ToUpper(args[0]),
			Side:      trading.OrderSide(strings.ToLower(placeSide)),
			Type:      trading.OrderType(strings.ToLower(placeType)),
			Quantity:  placeQuantity,
			Price:     placePrice,
			StopPrice: placeStopPrice,
		}

		order, err := gw.PlaceOrder(context.Background(), req)
		if err != nil {
			return fmt.Errorf("placing order: %w", err)
		}

		fmt.Printf("Order %s: %s %d %s (%s) -> %s\n",
			order.ID, order.Side, order.Quantity, order.Symbol, order.Type, order.Status)
		if order.IsFilled() {
			fmt.Printf("Filled %d @ $%.2f\n", order.FilledQuantity, order.FilledPrice)
		}

		log.Info("order placed",
			zap.String("order_id", order.ID),
			zap.String("symbol", order.Symbol),
			zap.String("status", string(order.Status)),
		)
		return nil
	})
}

func runBrokerCancel(cmd *cobra.Command, args []string) error {
	return withTradingGateway(func(gw trading.Gateway, log *zap.Logger) error {
		ok, err := gw.CancelOrder(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("cancelling order: %w", err)
		}
		if !ok {
			fmt.Printf("Order %s was not cancelled (unknown id or already terminal).\n", args[0])
			return nil
		}
		fmt.Printf("Order %s cancelled.\n", args[0])
		return nil
	})
}
