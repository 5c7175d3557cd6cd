package scrape

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cascadialive/showcrawler/internal/catalog"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// noopPause removes politeness delays from tests.
type noopPause struct{}

func (noopPause) Pause(context.Context, time.Duration) {}

// stubFetcher serves canned pages by URL and records the request order.
type stubFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	failures map[string]error
	requests []string
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		pages:    make(map[string]string),
		failures: make(map[string]error),
	}
}

func (f *stubFetcher) Fetch(_ context.Context, rawURL string) (Page, error) {
	f.mu.Lock()
	f.requests = append(f.requests, rawURL)
	f.mu.Unlock()
	if err, ok := f.failures[rawURL]; ok {
		return Page{}, err
	}
	body, ok := f.pages[rawURL]
	if !ok {
		return Page{}, &StatusError{URL: rawURL, Code: 404}
	}
	return Page{URL: rawURL, FinalURL: rawURL, StatusCode: 200, Body: []byte(body)}, nil
}

func (f *stubFetcher) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	copy(out, f.requests)
	return out
}

func newTestExtractor(t *testing.T, fetcher Fetcher) *Extractor {
	t.Helper()
	e := NewExtractor(testSite().ApplyDefaults(), fetcher, fixedClock{now: testNow}, zap.NewNop())
	e.pause = noopPause{}
	return e
}

const tribeListingHTML = `
<html><body>
<div class="tribe-events-calendar-list">
  <div class="tribe-events-calendar-list__event">
    <h3 class="tribe-events-calendar-list__event-title">
      <a href="/event/decemberists/">The Decemberists</a>
    </h3>
    <time datetime="2026-09-10T20:00:00-07:00">September 10</time>
    <div class="tribe-events-venue-details"><a>Crystal Ballroom</a></div>
    <span class="tribe-address">1332 W Burnside St</span>
    <div class="tribe-events-calendar-list__event-description">Indie folk favorites return. Doors 7:00 pm.</div>
    <dt>Event Category</dt><dd><a>Indie</a><a>Folk</a></dd>
    <img src="/img/spacer.gif"><img src="/img/decemberists.jpg">
  </div>
  <div class="tribe-events-calendar-list__event">
    <h3><a href="/event/mystery/">Mystery Act</a></h3>
    <span class="event-date">Not A Real Date</span>
  </div>
  <div class="tribe-events-calendar-list__event">
    <h3><a href="/event/untitled/">Missing Date Show</a></h3>
  </div>
</div>
</body></html>`

func TestExtractListingPage(t *testing.T) {
	t.Parallel()

	shows := newTestExtractor(t, newStubFetcher()).
		ExtractListingPage(context.Background(), []byte(tribeListingHTML))

	// Two blocks carry both title and raw date text; the third has no date
	// text at all and is discarded.
	require.Len(t, shows, 2)

	first := shows[0]
	require.Equal(t, "The Decemberists", first.Title)
	require.Equal(t, "The Decemberists", first.Artist)
	require.Equal(t, "Crystal Ballroom", first.Venue)
	require.Equal(t, "1332 W Burnside St", first.VenueAddress)
	require.Equal(t, "Portland", first.City)
	require.Equal(t, "2026-09-10", first.Date)
	require.False(t, first.DateGuessed)
	require.Equal(t, "7:00 pm", first.Time)
	require.Equal(t, []string{"Indie", "Folk"}, first.Genre)
	require.Contains(t, first.Description, "Indie folk favorites")
	require.Equal(t, "https://pdxlive.example.com/img/decemberists.jpg", first.ImageURL)
	require.Equal(t, "https://pdxlive.example.com/event/decemberists/", first.SourceURL)

	// Unparseable date text falls back to the run date and is flagged.
	second := shows[1]
	require.Equal(t, "Mystery Act", second.Title)
	require.Equal(t, "2026-09-01", second.Date)
	require.True(t, second.DateGuessed)
	require.Equal(t, catalog.DefaultVenue, second.Venue)
	require.Equal(t, catalog.DefaultTime, second.Time)
	require.Equal(t, []string{catalog.GenericGenre}, second.Genre)
}

func TestExtractListingPagePatternOrder(t *testing.T) {
	t.Parallel()

	// The page contains both tribe-list blocks and generic .event blocks.
	// Only the earlier pattern's blocks may be used.
	html := `
<html><body>
  <div class="tribe-events-calendar-list__event">
    <h3><a href="/event/kept/">Kept Show</a></h3>
    <time datetime="2026-10-01">Oct 1</time>
  </div>
  <div class="event">
    <h3><a href="/event/ignored/">Ignored Show</a></h3>
    <time datetime="2026-10-02">Oct 2</time>
  </div>
</body></html>`

	shows := newTestExtractor(t, newStubFetcher()).
		ExtractListingPage(context.Background(), []byte(html))
	require.Len(t, shows, 1)
	require.Equal(t, "Kept Show", shows[0].Title)
}

const detailPageHTML = `
<html><head>
  <meta property="og:image" content="https://cdn.example.com/stars.jpg">
</head><body>
  <h1 class="tribe-events-single-event-title">Stars of the Lid</h1>
  <time datetime="2026-11-01T20:00:00Z">November 1</time>
  <div class="tribe-venue"><a>Holocene</a></div>
  <div class="tribe-events-single-event-description">Ambient drone legends. Doors 8:00 pm.</div>
  <dl>
    <dt>Event Category</dt>
    <dd><a href="/events/category/ambient/">Ambient</a></dd>
  </dl>
</body></html>`

func TestExtractDetailPage(t *testing.T) {
	t.Parallel()

	show, ok := newTestExtractor(t, newStubFetcher()).
		ExtractDetailPage([]byte(detailPageHTML), "https://pdxlive.example.com/event/stars/")
	require.True(t, ok)
	require.Equal(t, "Stars of the Lid", show.Title)
	require.Equal(t, "2026-11-01", show.Date)
	require.Equal(t, "Holocene", show.Venue)
	require.Equal(t, "8:00 pm", show.Time)
	require.Equal(t, []string{"Ambient"}, show.Genre)
	require.Equal(t, "https://cdn.example.com/stars.jpg", show.ImageURL)
	require.Equal(t, "https://pdxlive.example.com/event/stars/", show.SourceURL)
}

func TestExtractDetailPageMissingFields(t *testing.T) {
	t.Parallel()

	_, ok := newTestExtractor(t, newStubFetcher()).
		ExtractDetailPage([]byte(`<html><body><h1>Title Only</h1></body></html>`), "https://x.example.com/event/a/")
	require.False(t, ok)

	_, ok = newTestExtractor(t, newStubFetcher()).
		ExtractDetailPage([]byte(`<html><body><time datetime="2026-01-01">Jan 1</time></body></html>`), "https://x.example.com/event/b/")
	require.False(t, ok)
}

func TestExtractGenres(t *testing.T) {
	t.Parallel()

	extractor := newTestExtractor(t, newStubFetcher())

	tests := []struct {
		name string
		html string
		want []string
	}{
		{
			"labeled section preferred",
			`<dl><dt>Event Categories</dt><dd><a>Jazz</a><a>Soul</a></dd></dl>
			 <a rel="tag">ShouldNotAppear</a>`,
			[]string{"Jazz", "Soul"},
		},
		{
			"tag anchors fallback",
			`<div><a rel="tag">Punk</a><a rel="tag">Hardcore</a></div>`,
			[]string{"Punk", "Hardcore"},
		},
		{
			"noise filtered",
			`<dl><dt>Event Category</dt><dd><a>Events</a><a>Calendar</a><a>Metal</a></dd></dl>`,
			[]string{"Metal"},
		},
		{
			"capped at three",
			`<dl><dt>Event Category</dt><dd><a>One</a><a>Two</a><a>Three</a><a>Four</a></dd></dl>`,
			[]string{"One", "Two", "Three"},
		},
		{
			"all noise collapses to generic",
			`<dl><dt>Event Category</dt><dd><a>Events</a><a>Venue</a></dd></dl>`,
			[]string{catalog.GenericGenre},
		},
		{
			"nothing found",
			`<p>No categories here.</p>`,
			[]string{catalog.GenericGenre},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			body := "<html><body>" + tt.html + "</body></html>"
			require.Equal(t, tt.want, extractor.ExtractGenres([]byte(body)))
		})
	}
}

func TestFollowDetailLinksFallback(t *testing.T) {
	t.Parallel()

	fetcher := newStubFetcher()
	fetcher.pages["https://pdxlive.example.com/event/stars/"] = detailPageHTML
	fetcher.failures["https://pdxlive.example.com/event/broken/"] = &StatusError{URL: "broken", Code: 500}

	// No block pattern matches; the page only links out to event details.
	listing := `
<html><body>
  <a href="/event/stars/">Stars of the Lid</a>
  <a href="/event/stars/">duplicate link</a>
  <a href="/event/broken/">Broken</a>
  <a href="/about/">About us</a>
</body></html>`

	shows := newTestExtractor(t, fetcher).
		ExtractListingPage(context.Background(), []byte(listing))

	// One detail page extracted; the failing link is skipped, the non-event
	// link never fetched, the duplicate fetched once.
	require.Len(t, shows, 1)
	require.Equal(t, "Stars of the Lid", shows[0].Title)
	require.ElementsMatch(t, []string{
		"https://pdxlive.example.com/event/stars/",
		"https://pdxlive.example.com/event/broken/",
	}, fetcher.requested())
}

func TestFollowDetailLinksRespectsLimit(t *testing.T) {
	t.Parallel()

	fetcher := newStubFetcher()
	var listing string
	for i := 0; i < 30; i++ {
		url := fmt.Sprintf("https://pdxlive.example.com/event/show-%d/", i)
		fetcher.pages[url] = detailPageHTML
		listing += fmt.Sprintf(`<a href="/event/show-%d/">Show %d</a>`, i, i)
	}

	site := testSite().ApplyDefaults()
	site.DetailFetchLimit = 5
	extractor := NewExtractor(site, fetcher, fixedClock{now: testNow}, zap.NewNop())
	extractor.pause = noopPause{}

	shows := extractor.ExtractListingPage(context.Background(), []byte("<html><body>"+listing+"</body></html>"))
	require.Len(t, shows, 5)
	require.Len(t, fetcher.requested(), 5)
}
