// Package runlog persists one row per pipeline run so operators can audit
// scrape history without digging through logs.
package runlog

import (
	"context"
	"time"

	"github.com/cascadialive/showcrawler/internal/syncer"
)

// Run captures the metadata recorded for one pipeline execution.
type Run struct {
	ID      string
	Site    string
	Status  string
	Started time.Time
}

// Provider is the persistence interface for run history. Implementations:
// Postgres for deployments, memory for tests, noop when history is disabled.
type Provider interface {
	// StartRun records a newly started run.
	StartRun(ctx context.Context, run Run) error
	// FinishRun records the terminal state and counters of a run.
	FinishRun(ctx context.Context, runID, status, errText string, stats syncer.Stats, finished time.Time) error
	// Close releases backend resources.
	Close()
}

// NoOpProvider discards run history.
type NoOpProvider struct{}

// StartRun does nothing.
func (NoOpProvider) StartRun(context.Context, Run) error { return nil }

// FinishRun does nothing.
func (NoOpProvider) FinishRun(context.Context, string, string, string, syncer.Stats, time.Time) error {
	return nil
}

// Close does nothing.
func (NoOpProvider) Close() {}
