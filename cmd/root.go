// Package cmd defines the CLI commands for the billtext executable.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/billtext-ingest/internal/config"
	"github.com/JakeFAU/billtext-ingest/internal/logging"
)

var cfgFile string

// newRootCmd creates and configures the root command. Configuration is
// loaded here so every subcommand sees a validated Config.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billtext",
		Short: "Ingests and normalizes full bill text from the upstream document API.",
		Long: `billtext acquires the latest text renditions for legislative bills,
normalizes their markup and character entities into clean plain text,
and persists the result while reporting live per-worker progress.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (environment variables override, prefix BILLTEXT_)")
	cmd.AddCommand(newIngestCmd())
	return cmd
}

func loadConfig() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewForRenderer(cfg.Ingest.Renderer, cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// Execute is the main entry point. Configuration errors are the only
// fatal ones; everything downstream degrades per bill.
func Execute() error {
	return newRootCmd().Execute()
}
