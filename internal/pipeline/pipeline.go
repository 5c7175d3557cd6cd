// Package pipeline sequences one scrape run for one site: crawl, enrich,
// dedupe, filter, sync. It owns the run state machine and the per-site
// overlap lease.
package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/catalog"
	"github.com/cascadialive/showcrawler/internal/metrics"
	"github.com/cascadialive/showcrawler/internal/publisher"
	"github.com/cascadialive/showcrawler/internal/runlog"
	"github.com/cascadialive/showcrawler/internal/scrape"
	"github.com/cascadialive/showcrawler/internal/syncer"
)

// State names one phase of a pipeline run.
type State string

// Run states, in execution order. Done and Failed are terminal.
const (
	StateFetching      State = "fetching"
	StateExtracting    State = "extracting"
	StateEnriching     State = "enriching"
	StateDeduplicating State = "deduplicating"
	StateFiltering     State = "filtering"
	StateSyncing       State = "syncing"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// ErrRunInProgress is returned when a run is requested for a site whose
// previous run has not finished.
var ErrRunInProgress = errors.New("a run is already in progress for this site")

// Result summarizes a finished run.
type Result struct {
	RunID    string       `json:"runId"`
	Site     string       `json:"site"`
	State    State        `json:"state"`
	Shows    int          `json:"shows"`
	Stats    syncer.Stats `json:"stats"`
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
}

type crawlRunner interface {
	Crawl(ctx context.Context) ([]catalog.Show, error)
}

type enrichRunner interface {
	Enrich(ctx context.Context, shows []catalog.Show)
}

type syncRunner interface {
	Sync(ctx context.Context, shows []catalog.Show) syncer.Stats
}

// Orchestrator runs the pipeline for a single site. At most one run per
// Orchestrator may be active at a time.
type Orchestrator struct {
	site     scrape.SiteConfig
	crawler  crawlRunner
	enricher enrichRunner
	syncer   syncRunner
	clock    scrape.Clock
	runs     runlog.Provider
	events   publisher.Provider
	logger   *zap.Logger

	running atomic.Bool
}

// NewOrchestrator wires the pipeline stages for one site.
func NewOrchestrator(
	site scrape.SiteConfig,
	crawler crawlRunner,
	enricher enrichRunner,
	sync syncRunner,
	clock scrape.Clock,
	runs runlog.Provider,
	events publisher.Provider,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		site:     site,
		crawler:  crawler,
		enricher: enricher,
		syncer:   sync,
		clock:    clock,
		runs:     runs,
		events:   events,
		logger:   logger.With(zap.String("site", site.Name)),
	}
}

// Site returns the name of the site this orchestrator covers.
func (o *Orchestrator) Site() string { return o.site.Name }

// Run executes one pipeline run. It returns ErrRunInProgress if a previous
// run has not finished, and a non-nil error only when the very first page
// fetch fails; every later failure degrades to a partial (still successful)
// run.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		return Result{}, ErrRunInProgress
	}
	defer o.running.Store(false)

	result := Result{
		RunID:   uuid.NewString(),
		Site:    o.site.Name,
		Started: o.clock.Now().UTC(),
	}
	logger := o.logger.With(zap.String("run_id", result.RunID))
	logger.Info("starting pipeline run")

	o.startRun(ctx, result)

	o.setState(&result, logger, StateFetching)
	shows, err := o.crawler.Crawl(ctx)
	if err != nil {
		return o.fail(ctx, result, logger, err)
	}

	o.setState(&result, logger, StateExtracting)
	logger.Info("extraction complete", zap.Int("shows", len(shows)))

	o.setState(&result, logger, StateEnriching)
	o.enricher.Enrich(ctx, shows)

	o.setState(&result, logger, StateDeduplicating)
	shows = catalog.Dedupe(shows)

	o.setState(&result, logger, StateFiltering)
	today := o.clock.Now().UTC().Format(catalog.DateLayout)
	shows = catalog.FutureOnly(shows, today)

	o.setState(&result, logger, StateSyncing)
	result.Stats = o.syncer.Sync(ctx, shows)

	result.State = StateDone
	result.Shows = len(shows)
	result.Finished = o.clock.Now().UTC()
	metrics.Runs.WithLabelValues(o.site.Name, string(StateDone)).Inc()
	o.finishRun(ctx, result, "")
	o.publish(ctx, result, logger)

	logger.Info("pipeline run complete",
		zap.Int("shows", result.Shows),
		zap.Int("added", result.Stats.Added),
		zap.Int("updated", result.Stats.Updated),
		zap.Int("skipped", result.Stats.Skipped),
		zap.Duration("elapsed", result.Finished.Sub(result.Started)),
	)
	return result, nil
}

func (o *Orchestrator) setState(result *Result, logger *zap.Logger, state State) {
	result.State = state
	logger.Debug("pipeline state change", zap.String("state", string(state)))
}

func (o *Orchestrator) fail(ctx context.Context, result Result, logger *zap.Logger, err error) (Result, error) {
	result.State = StateFailed
	result.Finished = o.clock.Now().UTC()
	metrics.Runs.WithLabelValues(o.site.Name, string(StateFailed)).Inc()
	o.finishRun(ctx, result, err.Error())
	o.publish(ctx, result, logger)
	logger.Error("pipeline run failed", zap.Error(err))
	return result, err
}

// startRun and finishRun record history best-effort: a broken history
// backend must not abort scraping.
func (o *Orchestrator) startRun(ctx context.Context, result Result) {
	err := o.runs.StartRun(ctx, runlog.Run{
		ID:      result.RunID,
		Site:    result.Site,
		Status:  string(StateFetching),
		Started: result.Started,
	})
	if err != nil {
		o.logger.Warn("failed to record run start", zap.Error(err))
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, result Result, errText string) {
	err := o.runs.FinishRun(ctx, result.RunID, string(result.State), errText, result.Stats, result.Finished)
	if err != nil {
		o.logger.Warn("failed to record run finish", zap.Error(err))
	}
}

func (o *Orchestrator) publish(ctx context.Context, result Result, logger *zap.Logger) {
	if _, err := o.events.Publish(ctx, result); err != nil {
		logger.Warn("failed to publish run event", zap.Error(err))
	}
}
