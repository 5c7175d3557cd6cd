package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newScrapeCmd() *cobra.Command {
	var site string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Runs one scrape pipeline and exits",
		Long: `Runs the full pipeline for a single site (or for every configured site
when --site is omitted) and exits. Useful for cron jobs and manual runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrapeCommand(cmd, site)
		},
	}

	cmd.Flags().StringVar(&site, "site", "", "site name to scrape (default: all configured sites)")
	return cmd
}

func runScrapeCommand(cmd *cobra.Command, site string) error {
	application, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := application.Logger

	orchestrators := application.Orchestrators
	if site != "" {
		orchestrator, ok := application.Orchestrator(site)
		if !ok {
			return fmt.Errorf("unknown site: %s", site)
		}
		orchestrators = orchestrators[:0:0]
		orchestrators = append(orchestrators, orchestrator)
	}

	var failed bool
	for _, orchestrator := range orchestrators {
		result, err := orchestrator.Run(cmd.Context())
		if err != nil {
			logger.Error("scrape failed", zap.String("site", orchestrator.Site()), zap.Error(err))
			failed = true
			continue
		}
		logger.Info("scrape complete",
			zap.String("site", result.Site),
			zap.Int("shows", result.Shows),
			zap.Int("added", result.Stats.Added),
			zap.Int("updated", result.Stats.Updated),
			zap.Int("skipped", result.Stats.Skipped),
		)
	}
	if failed {
		return fmt.Errorf("one or more scrapes failed")
	}
	return nil
}
