// Package scrape implements the listing-page crawler, the heuristic event
// extractor with ordered fallback patterns, and the genre enrichment pass.
package scrape
