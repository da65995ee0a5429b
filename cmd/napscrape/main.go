package main

import (
	"context"
	"fmt"
	"os"

	"napscraper/lib/serviceutil"
	"napscraper/lib/telemetry"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "napscrape",
	Short: "napscrape snapshots NAP Communications and Submissions from the public registry into an xlsx workbook.",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape both datasets and write the snapshot workbook.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(func(ctx context.Context, p pipeline) error {
			return p.runAll(ctx)
		})
	},
}

var communicationsCmd = &cobra.Command{
	Use:   "communications",
	Short: "Scrape only the per-country communications dataset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(func(ctx context.Context, p pipeline) error {
			return p.runCommunicationsOnly(ctx)
		})
	},
}

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "Scrape only the merged submissions dataset.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(func(ctx context.Context, p pipeline) error {
			return p.runSubmissionsOnly(ctx)
		})
	},
}

func withPipeline(fn func(ctx context.Context, p pipeline) error) error {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(verbose)
	t, err := telemetry.SetupFromEnv(ctx, "napscrape")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	cfg, err := loadConfig()
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	p, cleanup, err := newPipeline(cfg)
	if err != nil {
		serviceutil.Fatal("failed to initialize pipeline", err)
	}
	defer cleanup()

	return fn(ctx, p)
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(runCmd, communicationsCmd, submissionsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
