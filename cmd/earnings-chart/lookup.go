package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"EarningsChart/internal/report"
)

var (
	lookupJSON   bool
	historyJSON  bool
	historyLimit int
)

var lookupCmd = &cobra.Command{
	Use:   "lookup TICKER EARNINGS_DATE",
	Short: "Print the chart report of a ticker around an earnings date",
	Example: `  earnings-chart lookup AAPL 2024-02-01
  earnings-chart lookup msft 2024-01-30 --json`,
	Args: cobra.ExactArgs(2),
	RunE: runLookup,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recently served lookups",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "Print the report as JSON")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of lookups to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print lookups as JSON")
}

// wantJSON is true for --json or when stdout is not a terminal.
func wantJSON(flag bool) bool {
	return flag || !term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.RequestTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.service.Analyze(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if wantJSON(lookupJSON) {
		return printJSON(r)
	}
	fmt.Print(report.FormatReport(r))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit < 1 {
		return fmt.Errorf("--limit must be positive")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	events, err := a.service.History(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if wantJSON(historyJSON) {
		return printJSON(events)
	}
	fmt.Print(report.FormatHistory(events))
	return nil
}
