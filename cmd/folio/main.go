package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Set by ldflags at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := &app{}
	if err := execute(ctx, newRootCmd(a), a); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		cancel()
		os.Exit(1)
	}
}

// execute runs root and releases the app's market source whether or not the
// command succeeded.
func execute(ctx context.Context, root *cobra.Command, a *app) error {
	defer a.close()
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "folio",
		Short:         "Risk and exposure analysis for brokerage position exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.flags.provider, "provider", "", "market data provider: yahoo, longbridge or static")
	f.StringVar(&a.flags.quotes, "quotes", "", "quotes JSON file for the static provider")
	f.StringVar(&a.flags.cacheDir, "cache-dir", "", "market data cache directory")
	f.BoolVar(&a.flags.noCache, "no-cache", false, "bypass the market data cache")
	f.StringVar(&a.flags.logLevel, "log-level", "", "debug, info, warn, error or off")
	f.BoolVar(&a.flags.pretty, "pretty", false, "human-readable log output")
	f.StringVar(&a.flags.credential, "credential", "", "Longbridge credential file")

	root.AddCommand(
		newSummaryCmd(a),
		newPositionsCmd(a),
		newExposuresCmd(a),
		newSimulateCmd(a),
		newCacheCmd(a),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// no config or market source needed
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "folio %s (built %s)\n", Version, BuildTime)
		},
	}
}
