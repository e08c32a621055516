package catalog

import (
	"testing"

	"phonodex/internal/discogs"
)

func release(title, catno, year string) discogs.Release {
	return discogs.Release{Title: title, CatNo: catno, Year: discogs.Year(year)}
}

func TestMatchEmptyResults(t *testing.T) {
	matcher := NewMatcher(nil)
	if _, ok := matcher.Match("Artist", "Album", nil); ok {
		t.Error("empty results produced a selection")
	}
}

func TestMatchOldestVerifiedWins(t *testing.T) {
	matcher := NewMatcher(nil)
	results := []discogs.Release{
		release("Artist - Album", "CAT-NEW", "2005"),
		release("Artist - Album", "CAT-OLD", "1987"),
		release("Artist - Album", "CAT-MID", "1999"),
	}
	sel, ok := matcher.Match("Artist", "Album", results)
	if !ok {
		t.Fatal("no selection")
	}
	if sel.Catalog != "CAT-OLD" {
		t.Errorf("catalog = %q, want oldest pressing", sel.Catalog)
	}
}

func TestMatchOldestSkipsWrongArtist(t *testing.T) {
	matcher := NewMatcher(nil)
	// Neither title matches the album, so artist containment decides. The
	// 1970 release belongs to someone else and must be passed over.
	results := []discogs.Release{
		release("Other Band - Completely Different", "WRONG1", "1970"),
		release("Artist - Live Bootleg", "RIGHT1", "1991"),
	}
	sel, ok := matcher.Match("Artist", "Unrelated Album", results)
	if !ok {
		t.Fatal("no selection")
	}
	if sel.Catalog != "RIGHT1" {
		t.Errorf("catalog = %q, want the artist-verified release", sel.Catalog)
	}
}

func TestMatchExactTitleBeatsCatalogPresence(t *testing.T) {
	matcher := NewMatcher(nil)
	// The exact-title 1985 pressing has only the NONE placeholder; the
	// fuzzy 1999 match has a real catalog. Exact title wins.
	results := []discogs.Release{
		release("Artist - Album (Deluxe Edition)", "ABC123", "1999"),
		release("Artist - Album", "NONE", "1985"),
	}
	sel, ok := matcher.Match("Artist", "Album", results)
	if !ok {
		t.Fatal("no selection")
	}
	if sel.Catalog != "NONE" {
		t.Errorf("catalog = %q, want NONE placeholder from exact title match", sel.Catalog)
	}
	if sel.Release.Title != "Artist - Album" {
		t.Errorf("selected %q", sel.Release.Title)
	}
}

func TestMatchExactTitleWithCatalogPreferred(t *testing.T) {
	matcher := NewMatcher(nil)
	results := []discogs.Release{
		release("Artist - Album", "NONE", "1985"),
		release("Artist - Album", "REAL1", "1990"),
	}
	sel, ok := matcher.Match("Artist", "Album", results)
	if !ok {
		t.Fatal("no selection")
	}
	if sel.Catalog != "REAL1" {
		t.Errorf("catalog = %q, want the cataloged exact match", sel.Catalog)
	}
}

func TestMatchFrequencyFallback(t *testing.T) {
	matcher := NewMatcher(nil)
	// No year data anywhere, so frequency decides: CAT1 appears twice.
	results := []discogs.Release{
		release("Artist - Album", "CAT 1", ""),
		release("Artist - Album", "CAT2", ""),
		release("Artist - Album", "CAT1", ""),
	}
	sel, ok := matcher.Match("Artist", "Album", results)
	if !ok {
		t.Fatal("no selection")
	}
	if sel.Catalog != "CAT1" {
		t.Errorf("catalog = %q, want most frequent normalized value", sel.Catalog)
	}
}

func TestMatchFrequencyTieIsFirstSeen(t *testing.T) {
	matcher := NewMatcher(nil)
	results := []discogs.Release{
		release("Artist - Album", "FIRST", ""),
		release("Artist - Album", "SECOND", ""),
	}
	sel, ok := matcher.Match("Artist", "Album", results)
	if !ok {
		t.Fatal("no selection")
	}
	if sel.Catalog != "FIRST" {
		t.Errorf("catalog = %q, tie should keep first-seen value", sel.Catalog)
	}
}

func TestMatchContainmentIsFuzzy(t *testing.T) {
	matcher := NewMatcher(nil)
	// "The Artist" contains "Artist"; substring containment in either
	// direction counts as a match.
	results := []discogs.Release{
		release("The Artist - Album", "CAT1", "1995"),
		release("Somebody Else - Album", "CAT2", "1980"),
	}
	sel, ok := matcher.Match("Artist", "Album", results)
	if !ok {
		t.Fatal("no selection")
	}
	if sel.Catalog != "CAT1" {
		t.Errorf("catalog = %q, want the containment match", sel.Catalog)
	}
}

func TestMatchTitleOnlyRelease(t *testing.T) {
	matcher := NewMatcher(nil)
	// No separator in the title; album containment alone qualifies it.
	results := []discogs.Release{
		release("Album", "CAT1", "1992"),
	}
	sel, ok := matcher.Match("Artist", "Album", results)
	if !ok {
		t.Fatal("no selection")
	}
	if sel.Catalog != "CAT1" {
		t.Errorf("catalog = %q", sel.Catalog)
	}
}

func TestMatchLastResortScansRawList(t *testing.T) {
	matcher := NewMatcher(nil)
	// The working set narrows to an undated placeholder match, so both
	// the year and frequency stages come up empty. The last-resort scan
	// over the raw list still surfaces the unrelated cataloged entry.
	results := []discogs.Release{
		release("Artist - Album", "NONE", ""),
		release("Unrelated Band - Other Thing", "ZZ-9", ""),
	}
	sel, ok := matcher.Match("Artist", "Album", results)
	if !ok {
		t.Fatal("no selection")
	}
	if sel.Catalog != "ZZ-9" {
		t.Errorf("catalog = %q", sel.Catalog)
	}
}

func TestMatchNothingUsable(t *testing.T) {
	matcher := NewMatcher(nil)
	results := []discogs.Release{
		release("Unrelated - Nothing Alike", "", ""),
		release("Also Unrelated - Nope", "NONE", ""),
	}
	if _, ok := matcher.Match("Artist", "Album", results); ok {
		t.Error("selection produced from unusable results")
	}
}

func TestMatchCaseInsensitive(t *testing.T) {
	matcher := NewMatcher(nil)
	results := []discogs.Release{
		release("ARTIST - ALBUM", "CAT1", "1999"),
	}
	sel, ok := matcher.Match("artist", "album", results)
	if !ok {
		t.Fatal("no selection")
	}
	if sel.Catalog != "CAT1" {
		t.Errorf("catalog = %q", sel.Catalog)
	}
}
