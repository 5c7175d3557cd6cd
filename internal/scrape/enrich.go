package scrape

import (
	"context"

	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/catalog"
	"github.com/cascadialive/showcrawler/internal/metrics"
)

// Enricher performs the second pass over crawl output: shows still carrying
// only the generic genre get their detail pages fetched (bounded
// concurrency) and only the genre re-extracted.
type Enricher struct {
	site      SiteConfig
	fetcher   Fetcher
	extractor *Extractor
	pause     pauseController
	logger    *zap.Logger
}

// NewEnricher constructs an Enricher for one site.
func NewEnricher(site SiteConfig, fetcher Fetcher, extractor *Extractor, logger *zap.Logger) *Enricher {
	return &Enricher{
		site:      site,
		fetcher:   fetcher,
		extractor: extractor,
		pause:     timerPauseController{},
		logger:    logger,
	}
}

// Enrich mutates shows in place. Selection is idempotent: only records whose
// genre is exactly the generic placeholder and which carry a detail URL are
// touched, and a record is only ever upgraded to a specific genre, never
// regressed. Per-item failures leave the existing genre untouched.
func (en *Enricher) Enrich(ctx context.Context, shows []catalog.Show) {
	var candidates []int
	for i := range shows {
		if shows[i].HasGenericGenre() && shows[i].SourceURL != "" {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return
	}
	en.logger.Info("enriching genres",
		zap.String("site", en.site.Name),
		zap.Int("candidates", len(candidates)),
	)

	forEachBatch(ctx, len(candidates), en.site.BatchSize, en.site.BatchDelay, en.pause, func(n int) {
		idx := candidates[n]
		page, err := en.fetcher.Fetch(ctx, shows[idx].SourceURL)
		if err != nil {
			metrics.FetchErrors.WithLabelValues(en.site.Name).Inc()
			en.logger.Warn("enrichment fetch failed",
				zap.String("url", shows[idx].SourceURL),
				zap.Error(err),
			)
			return
		}
		metrics.PagesFetched.WithLabelValues(en.site.Name).Inc()

		genres := en.extractor.ExtractGenres(page.Body)
		if len(genres) == 1 && genres[0] == catalog.GenericGenre {
			return
		}
		shows[idx].Genre = genres
		metrics.GenresEnriched.WithLabelValues(en.site.Name).Inc()
	})
}
