package scrape

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/catalog"
)

func newTestEnricher(fetcher Fetcher, site SiteConfig) *Enricher {
	extractor := NewExtractor(site, fetcher, fixedClock{now: testNow}, zap.NewNop())
	extractor.pause = noopPause{}
	enricher := NewEnricher(site, fetcher, extractor, zap.NewNop())
	enricher.pause = noopPause{}
	return enricher
}

func genericShow(title, sourceURL string) catalog.Show {
	return catalog.Show{
		Title:     title,
		Venue:     "Holocene",
		City:      "Portland",
		Date:      "2026-09-10",
		Genre:     []string{catalog.GenericGenre},
		SourceURL: sourceURL,
	}
}

const genrePageHTML = `<html><body>
<dl><dt>Event Category</dt><dd><a>Ambient</a><a>Electronic</a></dd></dl>
</body></html>`

const genericGenrePageHTML = `<html><body><p>No categories listed.</p></body></html>`

func TestEnrichUpgradesGenericGenres(t *testing.T) {
	t.Parallel()

	site := testSite().ApplyDefaults()
	fetcher := newStubFetcher()
	fetcher.pages["https://pdxlive.example.com/event/a/"] = genrePageHTML

	shows := []catalog.Show{genericShow("A", "https://pdxlive.example.com/event/a/")}
	newTestEnricher(fetcher, site).Enrich(context.Background(), shows)

	require.Equal(t, []string{"Ambient", "Electronic"}, shows[0].Genre)
}

func TestEnrichSkipsNonCandidates(t *testing.T) {
	t.Parallel()

	site := testSite().ApplyDefaults()
	fetcher := newStubFetcher()

	specific := genericShow("A", "https://pdxlive.example.com/event/a/")
	specific.Genre = []string{"Jazz"}
	noURL := genericShow("B", "")

	shows := []catalog.Show{specific, noURL}
	newTestEnricher(fetcher, site).Enrich(context.Background(), shows)

	// Neither show triggers a fetch.
	require.Empty(t, fetcher.requested())
	require.Equal(t, []string{"Jazz"}, shows[0].Genre)
	require.Equal(t, []string{catalog.GenericGenre}, shows[1].Genre)
}

func TestEnrichNeverRegressesToGeneric(t *testing.T) {
	t.Parallel()

	site := testSite().ApplyDefaults()
	fetcher := newStubFetcher()
	fetcher.pages["https://pdxlive.example.com/event/a/"] = genericGenrePageHTML

	shows := []catalog.Show{genericShow("A", "https://pdxlive.example.com/event/a/")}
	newTestEnricher(fetcher, site).Enrich(context.Background(), shows)

	// The detail page offered nothing better; the placeholder stays.
	require.Equal(t, []string{catalog.GenericGenre}, shows[0].Genre)
	require.Len(t, fetcher.requested(), 1)
}

func TestEnrichFetchFailureLeavesGenreUntouched(t *testing.T) {
	t.Parallel()

	site := testSite().ApplyDefaults()
	fetcher := newStubFetcher()
	fetcher.failures["https://pdxlive.example.com/event/a/"] = &StatusError{URL: "a", Code: 500}
	fetcher.pages["https://pdxlive.example.com/event/b/"] = genrePageHTML

	shows := []catalog.Show{
		genericShow("A", "https://pdxlive.example.com/event/a/"),
		genericShow("B", "https://pdxlive.example.com/event/b/"),
	}
	newTestEnricher(fetcher, site).Enrich(context.Background(), shows)

	// The failed fetch leaves A untouched; B is still upgraded.
	require.Equal(t, []string{catalog.GenericGenre}, shows[0].Genre)
	require.Equal(t, []string{"Ambient", "Electronic"}, shows[1].Genre)
}

func TestEnrichProcessesInBatches(t *testing.T) {
	t.Parallel()

	site := testSite().ApplyDefaults()
	site.BatchSize = 10
	fetcher := newStubFetcher()

	var shows []catalog.Show
	for i := 0; i < 25; i++ {
		url := site.BaseURL + "event/" + string(rune('a'+i)) + "/"
		fetcher.pages[url] = genrePageHTML
		shows = append(shows, genericShow("Show", url))
	}

	newTestEnricher(fetcher, site).Enrich(context.Background(), shows)

	require.Len(t, fetcher.requested(), 25)
	for _, s := range shows {
		require.Equal(t, []string{"Ambient", "Electronic"}, s.Genre)
	}
}
