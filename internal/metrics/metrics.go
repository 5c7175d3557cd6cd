// Package metrics registers the Prometheus instruments shared by the
// pipeline components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched counts listing and detail pages fetched successfully.
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcrawler_pages_fetched_total",
		Help: "Pages fetched successfully, by site.",
	}, []string{"site"})

	// FetchErrors counts page and detail fetches that failed.
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcrawler_fetch_errors_total",
		Help: "Failed page fetches, by site.",
	}, []string{"site"})

	// ShowsExtracted counts show records produced by extraction.
	ShowsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcrawler_shows_extracted_total",
		Help: "Show records extracted from listing or detail pages, by site.",
	}, []string{"site"})

	// RecordsDropped counts candidate blocks discarded for a missing title or date.
	RecordsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcrawler_records_dropped_total",
		Help: "Candidate records discarded during extraction, by site.",
	}, []string{"site"})

	// GenresEnriched counts shows upgraded from the generic genre.
	GenresEnriched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcrawler_genres_enriched_total",
		Help: "Shows whose genre was upgraded by the enrichment pass, by site.",
	}, []string{"site"})

	// SyncOutcomes counts per-record sync results (added/updated/skipped).
	SyncOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcrawler_sync_outcomes_total",
		Help: "Per-record sync outcomes, by site and outcome.",
	}, []string{"site", "outcome"})

	// Runs counts pipeline runs by terminal state.
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "showcrawler_runs_total",
		Help: "Pipeline runs, by site and terminal state.",
	}, []string{"site", "state"})
)
