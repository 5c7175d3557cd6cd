// Package syncer persists final show lists into the remote record store with
// idempotent upsert semantics.
package syncer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/catalog"
	"github.com/cascadialive/showcrawler/internal/metrics"
	"github.com/cascadialive/showcrawler/internal/store"
)

// Stats tallies per-record sync outcomes for one run.
type Stats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

const (
	outcomeAdded   = "added"
	outcomeUpdated = "updated"
	outcomeSkipped = "skipped"
)

// Engine upserts shows one at a time: query by the (title, venue, date,
// city) identity tuple, then full-field update or insert. Writes are
// intentionally serial; uniqueness is enforced by query-before-write rather
// than a store-level constraint.
type Engine struct {
	store      store.Client
	collection string
	site       string
	logger     *zap.Logger
}

// New constructs a sync Engine for one site.
func New(client store.Client, collection, site string, logger *zap.Logger) *Engine {
	return &Engine{
		store:      client,
		collection: collection,
		site:       site,
		logger:     logger,
	}
}

// Sync upserts every show and returns the outcome tally. A per-record store
// error counts that record as skipped and the loop continues.
func (e *Engine) Sync(ctx context.Context, shows []catalog.Show) Stats {
	stats := Stats{Total: len(shows)}
	for _, show := range shows {
		outcome, err := e.syncOne(ctx, show)
		if err != nil {
			stats.Skipped++
			metrics.SyncOutcomes.WithLabelValues(e.site, outcomeSkipped).Inc()
			e.logger.Warn("show sync failed",
				zap.String("title", show.Title),
				zap.String("date", show.Date),
				zap.Error(err),
			)
			continue
		}
		switch outcome {
		case outcomeAdded:
			stats.Added++
		case outcomeUpdated:
			stats.Updated++
		}
		metrics.SyncOutcomes.WithLabelValues(e.site, outcome).Inc()
	}
	e.logger.Info("sync finished",
		zap.String("site", e.site),
		zap.Int("added", stats.Added),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("total", stats.Total),
	)
	return stats
}

func (e *Engine) syncOne(ctx context.Context, show catalog.Show) (string, error) {
	filter := map[string]any{
		"title": show.Title,
		"venue": show.Venue,
		"date":  show.Date,
		"city":  show.City,
	}
	existing, err := e.store.Query(ctx, e.collection, filter)
	if err != nil {
		return "", fmt.Errorf("query existing show: %w", err)
	}

	show.IsPublic = true
	if len(existing) > 0 {
		if err := e.store.Update(ctx, e.collection, filter, show); err != nil {
			return "", fmt.Errorf("update show: %w", err)
		}
		return outcomeUpdated, nil
	}
	if err := e.store.Insert(ctx, e.collection, show); err != nil {
		return "", fmt.Errorf("insert show: %w", err)
	}
	return outcomeAdded, nil
}
