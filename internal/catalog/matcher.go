package catalog

import (
	"log/slog"
	"sort"
	"strings"

	"phonodex/internal/discogs"
	"phonodex/internal/logging"
)

// Selection is the matcher's verdict: the chosen candidate and its
// normalized catalog number. Catalog may be the literal "NONE" placeholder
// when an exact-title match carries it.
type Selection struct {
	Release *discogs.Release
	Catalog string
}

// Matcher ranks the candidate releases of one search into a single
// authoritative answer.
type Matcher struct {
	logger *slog.Logger
}

// NewMatcher creates a matcher. A nil logger disables logging.
func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{logger: logging.NewComponentLogger(logger, "matcher")}
}

// candidate is one release plus the parsed parts of its display title,
// folded for comparison.
type candidate struct {
	release      *discogs.Release
	artistPart   string
	albumPart    string
	hasSeparator bool
	exactAlbum   bool // passed the stage-1 artist+album containment test
	exactTitle   bool // album part equals the query album exactly
}

// Match applies the staged ranking policy: containment filtering, exact
// album-title preference, catalog presence, earliest verified pressing,
// frequency fallback, then a last-resort scan of the unfiltered list. The
// boolean reports whether any usable answer was found.
func (m *Matcher) Match(artist, album string, results []discogs.Release) (Selection, bool) {
	if len(results) == 0 {
		return Selection{}, false
	}

	artistFold := foldString(artist)
	albumFold := foldString(album)

	all := make([]*candidate, 0, len(results))
	for i := range results {
		all = append(all, parseCandidate(&results[i]))
	}

	working := m.filterByContainment(all, artistFold, albumFold)
	working = m.preferExactTitles(working, albumFold)

	if sel, ok := m.selectOldestVerified(working, artistFold); ok {
		return sel, true
	}
	if sel, ok := m.selectByFrequency(working); ok {
		return sel, true
	}
	return m.lastResort(all)
}

func parseCandidate(release *discogs.Release) *candidate {
	c := &candidate{release: release}
	title := strings.TrimSpace(release.Title)
	if artistPart, albumPart, found := strings.Cut(title, " - "); found {
		c.hasSeparator = true
		c.artistPart = foldString(artistPart)
		c.albumPart = foldString(albumPart)
	} else {
		c.albumPart = foldString(title)
	}
	return c
}

// containsFold is the three-way fuzzy test: equal, contains, or contained.
// Both arguments must already be folded.
func containsFold(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// filterByContainment is stage 1: artist+album matches, falling back to
// artist-only matches, falling back to the full list.
func (m *Matcher) filterByContainment(all []*candidate, artistFold, albumFold string) []*candidate {
	var albumMatches []*candidate
	for _, c := range all {
		if c.hasSeparator {
			if containsFold(c.artistPart, artistFold) && containsFold(c.albumPart, albumFold) {
				c.exactAlbum = true
				albumMatches = append(albumMatches, c)
			}
		} else if containsFold(c.albumPart, albumFold) {
			c.exactAlbum = true
			albumMatches = append(albumMatches, c)
		}
	}
	if len(albumMatches) > 0 {
		m.logger.Debug("using artist+album containment matches",
			logging.Int("matched", len(albumMatches)),
			logging.Int("total", len(all)))
		return albumMatches
	}

	var artistMatches []*candidate
	for _, c := range all {
		if c.hasSeparator && containsFold(c.artistPart, artistFold) {
			artistMatches = append(artistMatches, c)
		}
	}
	if len(artistMatches) > 0 {
		m.logger.Debug("falling back to artist-only matches",
			logging.Int("matched", len(artistMatches)))
		return artistMatches
	}

	m.logger.Debug("no containment matches, keeping full result list")
	return all
}

// preferExactTitles is stages 2 and 3: exact album-title equality trumps
// catalog presence; only without exact titles does the catalog filter run.
func (m *Matcher) preferExactTitles(working []*candidate, albumFold string) []*candidate {
	var exact []*candidate
	for _, c := range working {
		if c.albumPart == albumFold {
			c.exactTitle = true
			exact = append(exact, c)
		}
	}

	if len(exact) > 0 {
		withCatalog := withPresentCatalog(exact)
		if len(withCatalog) > 0 {
			m.logger.Debug("exact title matches with catalog numbers",
				logging.Int("matched", len(withCatalog)))
			return withCatalog
		}
		m.logger.Debug("exact title matches without catalog numbers kept",
			logging.Int("matched", len(exact)))
		return exact
	}

	withCatalog := withPresentCatalog(working)
	if len(withCatalog) > 0 {
		return withCatalog
	}
	return working
}

func withPresentCatalog(candidates []*candidate) []*candidate {
	var kept []*candidate
	for _, c := range candidates {
		if catalogPresent(c.release.CatNo) {
			kept = append(kept, c)
		}
	}
	return kept
}

// selectOldestVerified is stage 4: among year-bearing candidates, the
// oldest whose artist part still matches wins. The re-verification guards
// against an unrelated release with a coincidentally low year.
func (m *Matcher) selectOldestVerified(working []*candidate, artistFold string) (Selection, bool) {
	type dated struct {
		c    *candidate
		year int
	}
	var withYear []dated
	for _, c := range working {
		if year, ok := c.release.Year.Int(); ok {
			withYear = append(withYear, dated{c: c, year: year})
		}
	}
	if len(withYear) == 0 {
		return Selection{}, false
	}
	sort.SliceStable(withYear, func(i, j int) bool {
		return withYear[i].year < withYear[j].year
	})

	var oldest *candidate
	for _, d := range withYear {
		if d.c.hasSeparator {
			if containsFold(d.c.artistPart, artistFold) {
				oldest = d.c
				break
			}
		} else if d.c.exactAlbum {
			// No artist in the title; trust it only when it passed the
			// stage-1 album containment test.
			oldest = d.c
			break
		}
	}
	if oldest == nil {
		oldest = withYear[0].c
		m.logger.Warn("oldest release could not be re-verified against artist",
			logging.String(logging.FieldEventType, "oldest_unverified"),
			logging.String("title", oldest.release.Title),
			logging.String(logging.FieldErrorHint, "verify the written catalog number manually"))
	}

	catno := strings.TrimSpace(oldest.release.CatNo)
	if catalogPresent(catno) {
		m.logger.Debug("selected oldest verified release",
			logging.String("year", string(oldest.release.Year)),
			logging.String(logging.FieldCatalog, NormalizeCatalog(catno)))
		return Selection{Release: oldest.release, Catalog: NormalizeCatalog(catno)}, true
	}
	if oldest.exactTitle {
		// An exact album-title match outranks catalog presence; the
		// placeholder is the honest answer here.
		m.logger.Debug("accepting NONE placeholder from exact title match",
			logging.String("title", oldest.release.Title))
		return Selection{Release: oldest.release, Catalog: "NONE"}, true
	}
	return Selection{}, false
}

// selectByFrequency is stage 5: the most common normalized catalog number
// across the working set wins. Ties keep the first-counted value, so the
// pick is deterministic for a given result order.
func (m *Matcher) selectByFrequency(working []*candidate) (Selection, bool) {
	counts := make(map[string]int)
	var order []string
	for _, c := range working {
		if !catalogPresent(c.release.CatNo) {
			continue
		}
		normalized := NormalizeCatalog(c.release.CatNo)
		if counts[normalized] == 0 {
			order = append(order, normalized)
		}
		counts[normalized]++
	}
	if len(order) == 0 {
		return Selection{}, false
	}

	best, second := "", ""
	for _, catno := range order {
		switch {
		case best == "" || counts[catno] > counts[best]:
			second = best
			best = catno
		case second == "" || counts[catno] > counts[second]:
			second = catno
		}
	}
	if (best == "NONE" || best == "") && second != "" {
		best = second
	}

	for _, c := range working {
		if NormalizeCatalog(c.release.CatNo) == best {
			m.logger.Debug("selected catalog by frequency",
				logging.String(logging.FieldCatalog, best),
				logging.Int("occurrences", counts[best]))
			return Selection{Release: c.release, Catalog: best}, true
		}
	}
	// Inconsistent data; fall back to the first candidate of the set.
	return Selection{Release: working[0].release, Catalog: best}, true
}

// lastResort is stage 6: scan the unfiltered list in order for any usable
// catalog number.
func (m *Matcher) lastResort(all []*candidate) (Selection, bool) {
	for _, c := range all {
		if catalogPresent(c.release.CatNo) {
			m.logger.Debug("last resort: first usable catalog in raw results",
				logging.String(logging.FieldCatalog, NormalizeCatalog(c.release.CatNo)))
			return Selection{Release: c.release, Catalog: NormalizeCatalog(c.release.CatNo)}, true
		}
	}
	return Selection{}, false
}
