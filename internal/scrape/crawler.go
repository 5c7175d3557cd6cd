package scrape

import (
	"context"
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/catalog"
	"github.com/cascadialive/showcrawler/internal/metrics"
	"github.com/cascadialive/showcrawler/internal/snapshot"
)

// ErrInitialFetch marks a failure of the very first listing-page request,
// the only error that aborts a whole pipeline run.
var ErrInitialFetch = errors.New("initial listing page fetch failed")

// Crawler drives the extractor across successive listing pages of one site
// until a termination condition fires. Page fetches are strictly sequential
// with a politeness delay between them.
type Crawler struct {
	site      SiteConfig
	fetcher   Fetcher
	extractor *Extractor
	snapshots snapshot.Provider
	clock     Clock
	pause     pauseController
	logger    *zap.Logger
}

// NewCrawler constructs a Crawler. snapshots may be a no-op provider.
func NewCrawler(
	site SiteConfig,
	fetcher Fetcher,
	extractor *Extractor,
	snapshots snapshot.Provider,
	clock Clock,
	logger *zap.Logger,
) *Crawler {
	return &Crawler{
		site:      site,
		fetcher:   fetcher,
		extractor: extractor,
		snapshots: snapshots,
		clock:     clock,
		pause:     timerPauseController{},
		logger:    logger,
	}
}

// Crawl walks pages 1..MaxPages and returns every extracted show in page
// order. Termination, checked in order: page fetch failure (keep what was
// collected), a page yielding zero records, MaxPages reached. Continuing to
// the next page additionally requires a next-page marker in the raw text.
// Only a first-page fetch failure returns an error.
func (c *Crawler) Crawl(ctx context.Context) ([]catalog.Show, error) {
	var all []catalog.Show

	for page := 1; page <= c.site.MaxPages; page++ {
		pageURL := c.site.PageURL(page)
		fetched, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			metrics.FetchErrors.WithLabelValues(c.site.Name).Inc()
			if page == 1 {
				return nil, fmt.Errorf("%w: %s: %v", ErrInitialFetch, pageURL, err)
			}
			c.logger.Warn("page fetch failed, stopping pagination",
				zap.String("site", c.site.Name),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}
		metrics.PagesFetched.WithLabelValues(c.site.Name).Inc()
		c.saveSnapshot(ctx, page, fetched.Body)

		shows := c.extractor.ExtractListingPage(ctx, fetched.Body)
		if len(shows) == 0 {
			c.logger.Info("empty page, stopping pagination",
				zap.String("site", c.site.Name),
				zap.Int("page", page),
			)
			break
		}
		all = append(all, shows...)
		c.logger.Debug("page crawled",
			zap.String("site", c.site.Name),
			zap.Int("page", page),
			zap.Int("shows", len(shows)),
		)

		if page == c.site.MaxPages {
			break
		}
		if !hasNextPageMarker(string(fetched.Body)) {
			c.logger.Debug("no next-page marker, stopping pagination",
				zap.String("site", c.site.Name),
				zap.Int("page", page),
			)
			break
		}
		c.pause.Pause(ctx, c.site.PageDelay)
	}

	return all, nil
}

func (c *Crawler) saveSnapshot(ctx context.Context, page int, body []byte) {
	if c.snapshots == nil {
		return
	}
	object := path.Join(
		c.site.Name,
		c.clock.Now().Format("2006-01-02"),
		fmt.Sprintf("page-%d.html", page),
	)
	if err := c.snapshots.Save(ctx, object, body); err != nil {
		c.logger.Warn("snapshot save failed", zap.String("object", object), zap.Error(err))
	}
}
