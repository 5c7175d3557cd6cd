package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockPattern matches whole-event containers on a listing page.
type blockPattern struct {
	name     string
	selector string
}

// Ordered from the calendar plugin's own list markup down to generic event
// conventions. The first pattern yielding at least one block is used
// exclusively; later patterns are never mixed in.
var listingBlockPatterns = []blockPattern{
	{"tribe-list-event", "div.tribe-events-calendar-list__event, article.tribe-events-calendar-list__event"},
	{"tribe-post-type", "div.type-tribe_events, article.type-tribe_events"},
	{"event-card", `article[class*="event-card"], div[class*="event-card"], div[class*="event-item"], li[class*="event-item"]`},
	{"generic-event", "article.event, div.event, li.event"},
}

// fieldPattern is one (matcher, extractor) pair in an ordered fallback list.
// Pairs are evaluated in declared order; the first non-empty result wins.
type fieldPattern struct {
	name    string
	extract func(s *goquery.Selection) string
}

func selText(selector string) func(*goquery.Selection) string {
	return func(s *goquery.Selection) string {
		return CleanText(s.Find(selector).First().Text())
	}
}

func selAttr(selector, attr string) func(*goquery.Selection) string {
	return func(s *goquery.Selection) string {
		v, _ := s.Find(selector).First().Attr(attr)
		return strings.TrimSpace(v)
	}
}

var titlePatterns = []fieldPattern{
	{"tribe-title-link", selText(".tribe-events-calendar-list__event-title a")},
	{"heading-link", selText("h2 a, h3 a")},
	{"heading", selText("h2, h3")},
	{"titled-anchor", selAttr("a[title]", "title")},
}

var datePatterns = []fieldPattern{
	{"datetime-attr", selAttr("time[datetime]", "datetime")},
	{"tribe-date-start", selText(".tribe-event-date-start")},
	{"date-class", selText(`[class*="event-date"], [class*="date"]`)},
}

var venuePatterns = []fieldPattern{
	{"tribe-venue-link", selText(".tribe-events-venue-details a")},
	{"venue-link", selText(`[class*="venue"] a`)},
	{"venue-class", selText(`[class*="venue"]`)},
	{"location-class", selText(`[class*="location"]`)},
}

var addressPatterns = []fieldPattern{
	{"tribe-address", selText(".tribe-address")},
	{"address-class", selText(`[class*="address"]`)},
}

var descriptionPatterns = []fieldPattern{
	{"tribe-description", selText(".tribe-events-calendar-list__event-description")},
	{"description-class", selText(`[class*="description"]`)},
	{"summary-class", selText(`[class*="summary"]`)},
	{"paragraph", selText("p")},
}

var detailTitlePatterns = []fieldPattern{
	{"tribe-single-title", selText("h1.tribe-events-single-event-title")},
	{"classed-h1", selText(`h1[class*="title"], h1[class*="event"]`)},
	{"h1", selText("h1")},
	{"og-title", selAttr(`meta[property="og:title"]`, "content")},
}

var detailDatePatterns = []fieldPattern{
	{"datetime-attr", selAttr("time[datetime]", "datetime")},
	{"tribe-schedule", selText(".tribe-events-schedule")},
	{"date-class", selText(`[class*="event-date"], [class*="date"]`)},
}

var detailVenuePatterns = []fieldPattern{
	{"tribe-venue-link", selText(".tribe-venue a, .tribe-events-venue-details a")},
	{"venue-class", selText(`[class*="venue"]`)},
}

var detailDescriptionPatterns = []fieldPattern{
	{"tribe-single-description", selText(".tribe-events-single-event-description")},
	{"description-class", selText(`[class*="description"]`)},
	{"meta-description", selAttr(`meta[name="description"]`, "content")},
}

// firstMatch evaluates an ordered fallback list against one selection.
func firstMatch(s *goquery.Selection, patterns []fieldPattern) string {
	for _, p := range patterns {
		if v := p.extract(s); v != "" {
			return v
		}
	}
	return ""
}

// clockTimePattern matches clock-time-shaped text ("8:00 pm", "19:30"),
// independent of the date field.
var clockTimePattern = regexp.MustCompile(`\b\d{1,2}:\d{2}(?:\s*[apAP]\.?[mM]\.?)?`)

// Known placeholder image references that never represent event artwork.
var imagePlaceholderHints = []string{"placeholder", "default", "spacer", "blank.", "data:image"}

// Structural cues whose presence in the raw page text indicates a next
// listing page exists. Absence of all of them stops pagination.
var nextPageMarkers = []string{
	`rel="next"`,
	"tribe-events-c-nav__next",
	"pagination__next",
	`class="next`,
	"nav-next",
}

func hasNextPageMarker(body string) bool {
	for _, marker := range nextPageMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// collectGenreTerms gathers raw category anchor texts from an event block or
// a full detail page. An explicit "Event Category" labeled section is
// preferred; generic tag-marked anchors are the fallback. The caller applies
// catalog.NormalizeGenres to the result.
func collectGenreTerms(s *goquery.Selection) []string {
	var terms []string
	appendText := func(_ int, a *goquery.Selection) {
		if t := CleanText(a.Text()); t != "" {
			terms = append(terms, t)
		}
	}

	// Definition-list markup: <dt>Event Category</dt><dd><a>...</a></dd>.
	s.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		if !strings.Contains(strings.ToLower(CleanText(dt.Text())), "event categor") {
			return
		}
		dt.NextUntil("dt").Find("a").Each(appendText)
	})
	if len(terms) == 0 {
		s.Find(`.tribe-events-event-categories a, [class*="event-categor"] a`).Each(appendText)
	}
	if len(terms) == 0 {
		s.Find(`a[rel="tag"], [class*="category"] a`).Each(appendText)
	}
	return terms
}
