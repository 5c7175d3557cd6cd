// Package schedule triggers periodic pipeline runs without an external cron.
package schedule

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/pipeline"
)

// Trigger starts one pipeline run for a site.
type Trigger interface {
	Site() string
	Run(ctx context.Context) (pipeline.Result, error)
}

// Runner fires every configured site's pipeline on a fixed interval.
type Runner struct {
	triggers []Trigger
	interval time.Duration
	logger   *zap.Logger
}

// NewRunner builds a Runner over the given triggers.
func NewRunner(triggers []Trigger, interval time.Duration, logger *zap.Logger) *Runner {
	return &Runner{triggers: triggers, interval: interval, logger: logger}
}

// Start blocks until ctx is canceled, running all sites once per interval.
// The first round fires after one full interval, not at startup, so a
// deploy does not immediately hammer the source sites.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("scheduler started",
		zap.Duration("interval", r.interval),
		zap.Int("sites", len(r.triggers)),
	)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			r.runAll(ctx)
		}
	}
}

func (r *Runner) runAll(ctx context.Context) {
	for _, trigger := range r.triggers {
		if ctx.Err() != nil {
			return
		}
		result, err := trigger.Run(ctx)
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			r.logger.Warn("skipping scheduled run, previous run still active",
				zap.String("site", trigger.Site()))
		case err != nil:
			r.logger.Error("scheduled run failed",
				zap.String("site", trigger.Site()), zap.Error(err))
		default:
			r.logger.Info("scheduled run complete",
				zap.String("site", trigger.Site()),
				zap.Int("shows", result.Shows),
				zap.Int("added", result.Stats.Added),
				zap.Int("updated", result.Stats.Updated),
			)
		}
	}
}
