package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/plrectco/dcf/cmd"
	"github.com/plrectco/dcf/internal/logger"
	"github.com/plrectco/dcf/internal/report"
	"github.com/plrectco/dcf/internal/util"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	terminalGrowth float64
	marketReturn   float64
	provider       string
	snapshots      string
	riskFreeSource string
	quiet          bool
}

// applyTo copies explicitly set flags over the loaded config.
func (f rootFlags) applyTo(c *cobra.Command, cfg *util.Config) {
	flags := c.Flags()
	if flags.Changed("terminal-growth") {
		cfg.TerminalGrowthRate = f.terminalGrowth
	}
	if flags.Changed("market-return") {
		cfg.MarketReturn = f.marketReturn
	}
	if flags.Changed("provider") {
		cfg.Provider = f.provider
	}
	if flags.Changed("snapshots") {
		cfg.SnapshotFile = f.snapshots
		// a snapshot file only makes sense with the csv provider
		if !flags.Changed("provider") {
			cfg.Provider = util.ProviderCsv
		}
	}
	if flags.Changed("risk-free-source") {
		cfg.RiskFreeSource = f.riskFreeSource
	}
}

func parseArgs(args []string) (int, []string, error) {
	if len(args) < 2 {
		return 0, nil, fmt.Errorf("expected a number of years followed by at least one ticker")
	}
	years, err := strconv.Atoi(args[0])
	if err != nil || years <= 0 {
		return 0, nil, fmt.Errorf("years must be a positive integer, got %q", args[0])
	}
	return years, args[1:], nil
}

func newRootCmd(loadConfig func() (*util.Config, error)) *cobra.Command {
	f := rootFlags{}
	defaults := util.NewDefaultConfig()

	root := &cobra.Command{
		Use:   "dcf YEARS TICKER...",
		Short: "Rank tickers by DCF margin of safety",
		Long: `Values each ticker with a discounted cash flow model over YEARS explicit
years plus a Gordon growth terminal value, then ranks them by
(intrinsic value - price) / price.`,
		Args: func(c *cobra.Command, args []string) error {
			_, _, err := parseArgs(args)
			return err
		},
		RunE: func(c *cobra.Command, args []string) error {
			years, tickers, err := parseArgs(args)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			f.applyTo(c, cfg)

			handler, err := cmd.InitializeDependencies(*cfg)
			if err != nil {
				return err
			}
			// failures are reported below, not as an error exit
			c.SilenceUsage = true

			opts := cmd.DefaultValuationOptions(*cfg)
			opts.Years = years

			ctx := logger.NewContext(c.Context(), handler.Logger)
			batch, err := handler.ValuationService.ValueBatch(ctx, tickers, opts)
			if err != nil {
				return err
			}

			out := c.OutOrStdout()
			if !f.quiet {
				for _, v := range batch.Ranked {
					if err := report.WriteValuation(out, v); err != nil {
						return err
					}
				}
			}
			if err := report.WriteFailures(out, batch.Failures); err != nil {
				return err
			}
			return report.WriteRanking(out, batch.Ranked, batch.Summary)
		},
	}

	flags := root.Flags()
	flags.Float64Var(&f.terminalGrowth, "terminal-growth", defaults.TerminalGrowthRate, "perpetual growth rate after the explicit years")
	flags.Float64Var(&f.marketReturn, "market-return", defaults.MarketReturn, "expected market return used in CAPM")
	flags.StringVar(&f.provider, "provider", defaults.Provider, "financial data provider (yahoo|csv)")
	flags.StringVar(&f.snapshots, "snapshots", "", "CSV file of snapshots for the csv provider")
	flags.StringVar(&f.riskFreeSource, "risk-free-source", defaults.RiskFreeSource, "risk free rate source (tnx|treasury)")
	flags.BoolVarP(&f.quiet, "quiet", "q", false, "only print failures and the ranking")

	root.AddCommand(newServeCmd(loadConfig))

	return root
}

func main() {
	if err := newRootCmd(util.LoadConfig).Execute(); err != nil {
		os.Exit(1)
	}
}
