package scrape

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/catalog"
	"github.com/cascadialive/showcrawler/internal/metrics"
)

// Extractor turns raw listing or detail documents into candidate Show
// records using ordered per-field fallback pattern lists. It holds a Fetcher
// only for the link-following fallback path.
type Extractor struct {
	site    SiteConfig
	fetcher Fetcher
	clock   Clock
	pause   pauseController
	logger  *zap.Logger
}

// NewExtractor constructs an Extractor for one site.
func NewExtractor(site SiteConfig, fetcher Fetcher, clock Clock, logger *zap.Logger) *Extractor {
	return &Extractor{
		site:    site,
		fetcher: fetcher,
		clock:   clock,
		pause:   timerPauseController{},
		logger:  logger,
	}
}

// ExtractListingPage produces zero or more candidate shows from one listing
// document. When no block pattern matches anything, it falls back to
// following event-detail links found in the document.
func (e *Extractor) ExtractListingPage(ctx context.Context, body []byte) []catalog.Show {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		e.logger.Warn("listing parse failed", zap.String("site", e.site.Name), zap.Error(err))
		return nil
	}

	blocks, patternName := matchListingBlocks(doc)
	if blocks == nil {
		return e.followDetailLinks(ctx, doc)
	}

	var shows []catalog.Show
	blocks.Each(func(_ int, block *goquery.Selection) {
		show, ok := e.showFromBlock(block)
		if !ok {
			metrics.RecordsDropped.WithLabelValues(e.site.Name).Inc()
			return
		}
		shows = append(shows, show)
	})
	metrics.ShowsExtracted.WithLabelValues(e.site.Name).Add(float64(len(shows)))
	e.logger.Debug("listing extracted",
		zap.String("site", e.site.Name),
		zap.String("pattern", patternName),
		zap.Int("shows", len(shows)),
	)
	return shows
}

// ExtractDetailPage applies the detail-page pattern lists to a full event
// document. ok is false when the page lacks a usable title or date.
func (e *Extractor) ExtractDetailPage(body []byte, sourceURL string) (catalog.Show, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		e.logger.Warn("detail parse failed", zap.String("url", sourceURL), zap.Error(err))
		return catalog.Show{}, false
	}
	root := doc.Selection

	title := firstMatch(root, detailTitlePatterns)
	rawDate := firstMatch(root, detailDatePatterns)
	if title == "" || rawDate == "" {
		metrics.RecordsDropped.WithLabelValues(e.site.Name).Inc()
		return catalog.Show{}, false
	}
	date, guessed := catalog.NormalizeDate(rawDate, e.clock.Now())

	image, _ := root.Find(`meta[property="og:image"]`).First().Attr("content")
	if image == "" {
		image = e.firstRealImage(root)
	}

	show := catalog.Show{
		Title:        title,
		Artist:       title,
		Venue:        orDefault(firstMatch(root, detailVenuePatterns), catalog.DefaultVenue),
		VenueAddress: firstMatch(root, addressPatterns),
		City:         e.site.City,
		Date:         date,
		DateGuessed:  guessed,
		Time:         orDefault(clockTime(root), catalog.DefaultTime),
		Genre:        catalog.NormalizeGenres(collectGenreTerms(root)),
		Description:  truncate(firstMatch(root, detailDescriptionPatterns), catalog.MaxDescription),
		ImageURL:     image,
		SourceURL:    sourceURL,
	}
	metrics.ShowsExtracted.WithLabelValues(e.site.Name).Inc()
	return show, true
}

// ExtractGenres runs only the genre policy against a detail document. The
// result is always normalized: 1 to 3 terms, or exactly the generic genre.
func (e *Extractor) ExtractGenres(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return []string{catalog.GenericGenre}
	}
	return catalog.NormalizeGenres(collectGenreTerms(doc.Selection))
}

func matchListingBlocks(doc *goquery.Document) (*goquery.Selection, string) {
	for _, p := range listingBlockPatterns {
		sel := doc.Find(p.selector)
		if sel.Length() > 0 {
			return sel, p.name
		}
	}
	return nil, ""
}

func (e *Extractor) showFromBlock(block *goquery.Selection) (catalog.Show, bool) {
	title := firstMatch(block, titlePatterns)
	rawDate := firstMatch(block, datePatterns)
	if title == "" || rawDate == "" {
		return catalog.Show{}, false
	}
	date, guessed := catalog.NormalizeDate(rawDate, e.clock.Now())

	return catalog.Show{
		Title:        title,
		Artist:       title,
		Venue:        orDefault(firstMatch(block, venuePatterns), catalog.DefaultVenue),
		VenueAddress: firstMatch(block, addressPatterns),
		City:         e.site.City,
		Date:         date,
		DateGuessed:  guessed,
		Time:         orDefault(clockTime(block), catalog.DefaultTime),
		Genre:        catalog.NormalizeGenres(collectGenreTerms(block)),
		Description:  truncate(firstMatch(block, descriptionPatterns), catalog.MaxDescription),
		ImageURL:     e.firstRealImage(block),
		SourceURL:    e.detailLink(block),
	}, true
}

// followDetailLinks is the listing-mode fallback: scan the document for
// event-detail links, fetch a bounded number of them concurrently, and run
// detail extraction on each. Per-link failures skip that link only.
func (e *Extractor) followDetailLinks(ctx context.Context, doc *goquery.Document) []catalog.Show {
	links := e.collectDetailLinks(doc)
	if len(links) == 0 {
		return nil
	}
	if len(links) > e.site.DetailFetchLimit {
		links = links[:e.site.DetailFetchLimit]
	}
	e.logger.Info("no listing blocks matched, following detail links",
		zap.String("site", e.site.Name),
		zap.Int("links", len(links)),
	)

	results := make([]catalog.Show, len(links))
	found := make([]bool, len(links))
	forEachBatch(ctx, len(links), e.site.BatchSize, e.site.BatchDelay, e.pause, func(i int) {
		page, err := e.fetcher.Fetch(ctx, links[i])
		if err != nil {
			metrics.FetchErrors.WithLabelValues(e.site.Name).Inc()
			e.logger.Warn("detail fetch failed", zap.String("url", links[i]), zap.Error(err))
			return
		}
		metrics.PagesFetched.WithLabelValues(e.site.Name).Inc()
		if show, ok := e.ExtractDetailPage(page.Body, links[i]); ok {
			results[i] = show
			found[i] = true
		}
	})

	shows := make([]catalog.Show, 0, len(links))
	for i, ok := range found {
		if ok {
			shows = append(shows, results[i])
		}
	}
	return shows
}

func (e *Extractor) collectDetailLinks(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if href == "" || !strings.Contains(href, e.site.DetailURLHint) {
			return
		}
		abs := e.resolveURL(href)
		if abs == "" {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links
}

func (e *Extractor) detailLink(block *goquery.Selection) string {
	var link string
	block.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if href != "" && strings.Contains(href, e.site.DetailURLHint) {
			link = e.resolveURL(href)
			return false
		}
		return true
	})
	return link
}

func (e *Extractor) firstRealImage(s *goquery.Selection) string {
	var src string
	s.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		candidate, _ := img.Attr("src")
		if candidate == "" || isPlaceholderImage(candidate) {
			return true
		}
		src = e.resolveURL(candidate)
		return false
	})
	return src
}

func (e *Extractor) resolveURL(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, err := url.Parse(e.site.BaseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func isPlaceholderImage(src string) bool {
	lower := strings.ToLower(src)
	for _, hint := range imagePlaceholderHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func clockTime(s *goquery.Selection) string {
	return strings.TrimSpace(clockTimePattern.FindString(s.Text()))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
