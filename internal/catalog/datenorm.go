package catalog

import (
	"regexp"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date format for Show.Date.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order against the cleaned raw text. Machine
// readable timestamps come first because listing markup usually carries a
// datetime attribute; human-readable forms follow.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Monday, January 2, 2006",
	"Monday, January 2 2006",
	"2 January 2006",
	"01/02/2006",
	"1/2/2006",
}

// yearlessLayouts cover listing text that omits the year ("Nov 1", "Saturday,
// November 1"). The run's current year is assumed.
var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"Monday, January 2",
}

var ordinalSuffix = regexp.MustCompile(`(\d{1,2})(st|nd|rd|th)\b`)

// NormalizeDate converts loosely formatted date/time text to canonical
// YYYY-MM-DD. If nothing parses, it returns today's date (relative to now)
// and guessed=true rather than failing; the flag lets downstream consumers
// detect a silently defaulted date.
func NormalizeDate(raw string, now time.Time) (date string, guessed bool) {
	text := strings.TrimSpace(raw)
	text = ordinalSuffix.ReplaceAllString(text, "$1")
	text = strings.Join(strings.Fields(text), " ")

	if text != "" {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return t.Format(DateLayout), false
			}
		}
		for _, layout := range yearlessLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(DateLayout), false
			}
		}
		// A timestamp with trailing junk still often starts with its date.
		if len(text) >= len(DateLayout) {
			if t, err := time.Parse(DateLayout, text[:len(DateLayout)]); err == nil {
				return t.Format(DateLayout), false
			}
		}
	}

	return now.Format(DateLayout), true
}
