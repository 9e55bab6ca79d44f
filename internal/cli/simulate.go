package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateExchange string
	simulateProduct  string
	simulatePrice    float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Run one collection cycle with a fixed price to exercise alerting",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulatePrice <= 0 {
			return errors.New("--price must be greater than 0")
		}

		price := decimal.NewFromFloat(simulatePrice)
		return getApp().SimulateAlert(cmd.Context(), simulateExchange, simulateProduct, price)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateExchange, "exchange", "simulated", "Exchange name to report")
	simulateCmd.Flags().StringVar(&simulateProduct, "product", "BTC-USD", "Product symbol to report")
	simulateCmd.Flags().Float64Var(&simulatePrice, "price", 0, "Price to feed through the pipeline")
}
