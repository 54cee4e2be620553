// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equity-engine/pkg/types"
)

var quoteCmd = &cobra.Command{
	Use:   "quote SYMBOL",
	Short: "Show the latest quote for a symbol",
	Long: `Quote fetches the current quote through the cached provider chain. The
first call reads the snapshot fixture; repeats within the quote TTL are
served from the cache.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuote,
}

func runQuote(cmd *cobra.Command, args []string) error {
	symbol, err := types.NormalizeSymbol(args[0])
	if err != nil {
		return err
	}

	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	q, err := rt.market.Quote(cmd.Context(), symbol)
	if err != nil {
		return err
	}

	fmt.Printf("%s  %.2f %s\n", q.Symbol, q.Price, q.Currency)
	fmt.Printf("Change:          %+.2f (%+.2f%%)\n", q.Change, q.ChangePercent)
	fmt.Printf("Previous close:  %.2f\n", q.PreviousClose)
	if q.Volume > 0 {
		fmt.Printf("Volume:          %d\n", q.Volume)
	}
	if q.MarketCap > 0 {
		fmt.Printf("Market cap:      %.0f\n", q.MarketCap)
	}
	if !q.AsOf.IsZero() {
		fmt.Printf("As of:           %s\n", q.AsOf.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(quoteCmd)
}
