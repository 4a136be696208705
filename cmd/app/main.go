package main

import (
	"context"
	"fmt"
	"os"

	"TrendPulse/internal/di"
	"TrendPulse/pkg/config"

	"github.com/spf13/cobra"
)

var (
	version   = "0.1.0"
	commit    = "dev"
	buildTime = "unknown" // -X main.buildTime=...
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "trendpulse",
		Short:        "Trend estimation for economic indicator series",
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trendpulse v%s (%s) built %s\n", version, commit, buildTime)
		},
	})

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, feed collector and workers",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "config/config.yaml", "config file path (empty uses defaults)")
	root.AddCommand(serveCmd)

	root.AddCommand(newAnalyzeCmd(), newDetectCmd(), newNextCmd())
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	return app.Run(cmd.Context())
}
