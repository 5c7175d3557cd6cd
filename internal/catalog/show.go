// Package catalog defines the Show record and the pure transformations
// applied to show lists between extraction and persistence.
package catalog

import "strings"

// Defaults applied when extraction leaves a field empty.
const (
	DefaultVenue = "TBA"
	DefaultTime  = "TBA"
	GenericGenre = "General"

	// MaxGenres caps how many category terms a show may carry.
	MaxGenres = 3
	// MaxDescription is the truncation limit for extracted descriptions.
	MaxDescription = 500
)

// Show is the central catalog entity. A Show is created in memory by the
// extractor, possibly re-categorized by the enrichment pass, and persisted
// as a document in the remote record store.
type Show struct {
	ID           string   `json:"_id,omitempty"`
	Title        string   `json:"title"`
	Artist       string   `json:"artist"`
	Venue        string   `json:"venue"`
	VenueAddress string   `json:"venueAddress"`
	City         string   `json:"city"`
	Date         string   `json:"date"` // always canonical YYYY-MM-DD
	Time         string   `json:"time"`
	Genre        []string `json:"genre"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	SourceURL    string   `json:"sourceUrl,omitempty"`
	IsPublic     bool     `json:"isPublic"`
	// DateGuessed marks records whose raw date text could not be parsed and
	// whose Date therefore defaulted to the day of the pipeline run.
	DateGuessed bool `json:"dateGuessed,omitempty"`
}

// IdentityKey returns the dedup key for a show. City is deliberately
// excluded: one pipeline run covers a single site, and every record it
// produces carries that site's city.
func (s Show) IdentityKey() string {
	return s.Title + "|" + s.Venue + "|" + s.Date
}

// HasGenericGenre reports whether the show carries only the generic
// placeholder category and is therefore a candidate for enrichment.
func (s Show) HasGenericGenre() bool {
	return len(s.Genre) == 1 && s.Genre[0] == GenericGenre
}

// Dedupe collapses shows sharing an identity key, keeping the first record
// encountered per key and dropping every later duplicate regardless of
// whether other fields differ.
func Dedupe(shows []Show) []Show {
	seen := make(map[string]struct{}, len(shows))
	out := make([]Show, 0, len(shows))
	for _, s := range shows {
		key := s.IdentityKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// FutureOnly drops shows dated before today. Dates are canonical YYYY-MM-DD
// strings, so lexicographic comparison is date comparison. Past shows are
// excluded from sync but never purged from the store.
func FutureOnly(shows []Show, today string) []Show {
	out := make([]Show, 0, len(shows))
	for _, s := range shows {
		if s.Date >= today {
			out = append(out, s)
		}
	}
	return out
}

// NormalizeGenres applies the genre policy to a collected term list: noise
// terms are filtered case-insensitively, at most MaxGenres remain, and an
// empty result becomes exactly [GenericGenre].
func NormalizeGenres(terms []string) []string {
	out := make([]string, 0, MaxGenres)
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" || isNoiseGenre(term) {
			continue
		}
		out = append(out, term)
		if len(out) == MaxGenres {
			break
		}
	}
	if len(out) == 0 {
		return []string{GenericGenre}
	}
	return out
}

var genreNoiseTerms = map[string]struct{}{
	"event":    {},
	"events":   {},
	"calendar": {},
	"venue":    {},
	"upcoming": {},
}

func isNoiseGenre(term string) bool {
	_, ok := genreNoiseTerms[strings.ToLower(term)]
	return ok
}
