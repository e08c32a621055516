// Package catalog resolves (artist, album) pairs to authoritative release
// metadata.
//
// The resolver checks a process-wide verdict cache, issues up to three
// progressively broader Discogs searches on a miss, and hands the raw
// candidate list to a staged matcher that prefers exact album-title matches
// over fuzzy ones, earliest pressings over reissues, and falls back to
// catalog-number frequency when year data is missing. Verdicts — both
// resolved metadata and definitive no-match outcomes — are cached so a
// batch of files from one album costs a single search.
package catalog
