package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	tagPattern       = regexp.MustCompile(`<[^>]*>`)
	decEntityPattern = regexp.MustCompile(`&#(\d+);`)
	hexEntityPattern = regexp.MustCompile(`&#[xX]([0-9a-fA-F]+);`)
)

// Named entities the source sites are known to emit. &amp; is decoded in the
// same pass as the rest, so "&amp;lt;" stays "&lt;" rather than turning into
// a stray angle bracket.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&lsquo;", "‘",
	"&rsquo;", "’",
	"&ldquo;", "“",
	"&rdquo;", "”",
	"&ndash;", "–",
	"&mdash;", "—",
	"&hellip;", "…",
	"&copy;", "©",
	"&reg;", "®",
	"&trade;", "™",
	"&deg;", "°",
)

// CleanText normalizes a fragment of extracted markup: tags are stripped,
// numeric and known named character references are decoded, and runs of
// whitespace collapse to single spaces.
func CleanText(raw string) string {
	text := tagPattern.ReplaceAllString(raw, " ")

	text = hexEntityPattern.ReplaceAllStringFunc(text, func(m string) string {
		digits := m[3 : len(m)-1]
		code, err := strconv.ParseInt(digits, 16, 32)
		if err != nil || code <= 0 {
			return m
		}
		return string(rune(code))
	})
	text = decEntityPattern.ReplaceAllStringFunc(text, func(m string) string {
		digits := m[2 : len(m)-1]
		code, err := strconv.ParseInt(digits, 10, 32)
		if err != nil || code <= 0 {
			return m
		}
		return string(rune(code))
	})
	text = entityReplacer.Replace(text)

	return strings.Join(strings.Fields(text), " ")
}

// truncate shortens s to at most limit characters, counting runes so a
// multibyte character is never split.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
