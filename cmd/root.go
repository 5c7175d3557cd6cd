// Package cmd defines the CLI commands for the showcrawler executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cascadialive/showcrawler/internal/app"
	"github.com/cascadialive/showcrawler/internal/config"
	"github.com/cascadialive/showcrawler/internal/logging"
)

var cfgFile string

type appKeyType struct{}

var appKey appKeyType

// newApp is the application factory. It is a variable so tests can swap in
// a mock factory.
var newApp = func(ctx context.Context, cfgPath string) (*app.App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return app.New(ctx, cfg, logger)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "showcrawler",
		Short: "Scrapes live-music listings and syncs them to the show catalog.",
		Long: `showcrawler walks configured event-calendar sites, extracts upcoming
shows, enriches their genres from detail pages, and syncs the results
into the remote show catalog.`,

		// Runs after flags are parsed but before the subcommand's RunE,
		// so every subcommand receives a fully wired application.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApp(cmd.Context(), cfgFile)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, application))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if application, ok := cmd.Context().Value(appKey).(*app.App); ok && application != nil {
				application.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default reads SHOWCRAWLER_* env)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScrapeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	application, ok := ctx.Value(appKey).(*app.App)
	if !ok || application == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return application, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "showcrawler: %v\n", err)
		os.Exit(1)
	}
}
