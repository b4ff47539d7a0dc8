package main

import (
	"fmt"
	"time"

	"folio/internal/account"
	"folio/internal/display"
	"folio/internal/market"
	"folio/internal/model"

	"github.com/spf13/cobra"
)

// analysis is one loaded export with its aggregator.
type analysis struct {
	portfolio model.Portfolio
	agg       *account.Aggregator
}

func (a *app) analyze(path string) (*analysis, error) {
	p, err := a.load(path)
	if err != nil {
		return nil, err
	}
	return &analysis{
		portfolio: p,
		agg: account.NewAggregator(a.source,
			account.WithEngine(a.engine),
			account.WithLogger(a.log),
		),
	}, nil
}

func newSummaryCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		out    string
	)
	cmd := &cobra.Command{
		Use:   "summary <export.csv>",
		Short: "Portfolio values, exposure and beta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := a.analyze(args[0])
			if err != nil {
				return err
			}
			s, b, err := an.agg.Analyze(cmd.Context(), an.portfolio)
			if err != nil {
				return err
			}

			if asJSON || out != "" {
				r := account.NewReport(args[0], an.portfolio, s, b, time.Now())
				if out != "" {
					if err := account.WriteReport(out, r); err != nil {
						return fmt.Errorf("write report: %w", err)
					}
					a.log.Info().Str("path", out).Msg("report written")
				}
				if asJSON {
					return r.Encode(cmd.OutOrStdout())
				}
			}

			r := display.New(cmd.OutOrStdout())
			r.Summary(s)
			r.Groups(account.GroupByTicker(an.portfolio, b))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the JSON report to this file")
	return cmd
}

func newPositionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "positions <export.csv>",
		Short: "List classified positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.load(args[0])
			if err != nil {
				return err
			}
			display.New(cmd.OutOrStdout()).Positions(p)
			return nil
		},
	}
}

func newExposuresCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exposures <export.csv>",
		Short: "Per-position delta-adjusted and beta-adjusted exposure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := a.analyze(args[0])
			if err != nil {
				return err
			}
			b, err := an.agg.Exposures(cmd.Context(), an.portfolio)
			if err != nil {
				return err
			}
			display.New(cmd.OutOrStdout()).Exposures(b)
			return nil
		},
	}
}

func newSimulateCmd(a *app) *cobra.Command {
	var moves []float64
	cmd := &cobra.Command{
		Use:   "simulate <export.csv>",
		Short: "Reprice the portfolio under uniform market moves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			an, err := a.analyze(args[0])
			if err != nil {
				return err
			}
			points, err := an.agg.Simulate(cmd.Context(), an.portfolio, moves)
			if err != nil {
				return err
			}
			display.New(cmd.OutOrStdout()).Simulation(points)
			return nil
		},
	}
	cmd.Flags().Float64SliceVar(&moves, "moves", []float64{-0.2, -0.1, 0, 0.1, 0.2},
		"fractional moves of every underlying, e.g. -0.1 for a 10% drop")
	return cmd
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the market data cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show cached symbols and lookup totals",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c := a.newCache(market.NewStatic())
				symbols, err := c.CachedSymbols()
				if err != nil {
					return err
				}
				totals, err := c.Totals()
				if err != nil {
					return err
				}
				display.New(cmd.OutOrStdout()).CacheStats(a.cfg.CacheDir, totals, symbols)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached quote and history",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := a.newCache(market.NewStatic()).Clear(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", a.cfg.CacheDir)
				return nil
			},
		},
	)
	return cmd
}
