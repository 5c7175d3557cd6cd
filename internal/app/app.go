// Package app initializes and holds the long-lived services of the scraper,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/clock/system"
	"github.com/cascadialive/showcrawler/internal/config"
	"github.com/cascadialive/showcrawler/internal/pipeline"
	"github.com/cascadialive/showcrawler/internal/publisher"
	"github.com/cascadialive/showcrawler/internal/runlog"
	"github.com/cascadialive/showcrawler/internal/scrape"
	"github.com/cascadialive/showcrawler/internal/snapshot"
	"github.com/cascadialive/showcrawler/internal/store"
	"github.com/cascadialive/showcrawler/internal/syncer"
)

// App holds the shared services and the per-site pipeline orchestrators.
// It is initialized once at startup and passed to the command layer.
type App struct {
	Config        config.Config
	Logger        *zap.Logger
	Orchestrators []*pipeline.Orchestrator

	runs      runlog.Provider
	snapshots snapshot.Provider
	events    publisher.Provider
}

// New builds every service from configuration. It fails fast when a critical
// backend cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	runs, err := newRunLogProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	snapshots, err := newSnapshotProvider(ctx, cfg, logger)
	if err != nil {
		runs.Close()
		return nil, err
	}
	events, err := newPublisherProvider(ctx, cfg, logger)
	if err != nil {
		runs.Close()
		snapshots.Close()
		return nil, err
	}

	fetcher, err := scrape.NewCollyFetcher(scrape.FetcherConfig{
		UserAgent:      cfg.Scraper.UserAgent,
		RequestTimeout: cfg.ScraperTimeout(),
		MaxConcurrency: cfg.Scraper.MaxConcurrency,
	}, logger)
	if err != nil {
		runs.Close()
		snapshots.Close()
		events.Close()
		return nil, fmt.Errorf("initialize fetcher: %w", err)
	}

	records := store.NewRestClient(store.Config{
		BaseURL:   cfg.Store.BaseURL,
		APIKey:    cfg.Store.APIKey,
		ProjectID: cfg.Store.ProjectID,
		Timeout:   cfg.StoreTimeout(),
	})

	clk := system.Clock{}
	orchestrators := make([]*pipeline.Orchestrator, 0, len(cfg.Sites))
	for _, site := range cfg.Sites {
		extractor := scrape.NewExtractor(site, fetcher, clk, logger)
		crawler := scrape.NewCrawler(site, fetcher, extractor, snapshots, clk, logger)
		enricher := scrape.NewEnricher(site, fetcher, extractor, logger)
		engine := syncer.New(records, cfg.Store.Collection, site.Name, logger)
		orchestrators = append(orchestrators,
			pipeline.NewOrchestrator(site, crawler, enricher, engine, clk, runs, events, logger))
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		Orchestrators: orchestrators,
		runs:          runs,
		snapshots:     snapshots,
		events:        events,
	}, nil
}

func newRunLogProvider(ctx context.Context, cfg config.Config, logger *zap.Logger) (runlog.Provider, error) {
	switch cfg.RunLog.Provider {
	case "postgres":
		logger.Info("using postgres run history", zap.String("table", cfg.RunLog.Table))
		provider, err := runlog.NewPostgresProvider(ctx, runlog.PostgresConfig{
			DSN:   cfg.RunLog.DSN,
			Table: cfg.RunLog.Table,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize run history: %w", err)
		}
		return provider, nil
	case "memory":
		return runlog.NewMemoryProvider(), nil
	case "noop", "":
		logger.Info("run history disabled")
		return runlog.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown runlog provider: %s", cfg.RunLog.Provider)
	}
}

func newSnapshotProvider(ctx context.Context, cfg config.Config, logger *zap.Logger) (snapshot.Provider, error) {
	switch cfg.Snapshot.Provider {
	case "gcs":
		logger.Info("archiving page snapshots to GCS", zap.String("bucket", cfg.Snapshot.Bucket))
		provider, err := snapshot.NewGCSProvider(ctx, cfg.Snapshot.Bucket, cfg.Snapshot.Prefix, logger)
		if err != nil {
			return nil, fmt.Errorf("initialize snapshot storage: %w", err)
		}
		return provider, nil
	case "local":
		provider, err := snapshot.NewLocalProvider(cfg.Snapshot.Dir)
		if err != nil {
			return nil, fmt.Errorf("initialize snapshot storage: %w", err)
		}
		return provider, nil
	case "noop", "":
		logger.Info("page snapshots disabled")
		return snapshot.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown snapshot provider: %s", cfg.Snapshot.Provider)
	}
}

func newPublisherProvider(ctx context.Context, cfg config.Config, logger *zap.Logger) (publisher.Provider, error) {
	switch cfg.Publisher.Provider {
	case "pubsub":
		logger.Info("publishing run events to Pub/Sub", zap.String("topic", cfg.Publisher.Topic))
		provider, err := publisher.NewPubSubProvider(ctx, publisher.PubSubConfig{
			ProjectID: cfg.Publisher.ProjectID,
			Topic:     cfg.Publisher.Topic,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize run event publisher: %w", err)
		}
		return provider, nil
	case "memory":
		return publisher.NewMemoryProvider(), nil
	case "noop", "":
		logger.Info("run events disabled")
		return publisher.NoOpProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown publisher provider: %s", cfg.Publisher.Provider)
	}
}

// Orchestrator returns the orchestrator for the named site, if configured.
func (a *App) Orchestrator(site string) (*pipeline.Orchestrator, bool) {
	for _, o := range a.Orchestrators {
		if o.Site() == site {
			return o, true
		}
	}
	return nil, false
}

// Close gracefully shuts down the shared services.
func (a *App) Close() {
	a.runs.Close()
	if err := a.snapshots.Close(); err != nil {
		a.Logger.Warn("error closing snapshot storage", zap.Error(err))
	}
	if err := a.events.Close(); err != nil {
		a.Logger.Warn("error closing event publisher", zap.Error(err))
	}
	// Flush buffered log entries; best effort on shutdown.
	_ = a.Logger.Sync()
}
