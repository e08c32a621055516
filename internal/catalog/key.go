package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// Key identifies one lookup: the case-folded, whitespace-trimmed
// "artist|album" pair. Equality is exact string match on the normalized
// form.
type Key string

// NewKey builds the cache key for an artist/album pair. An empty album
// yields the empty key, which is never cached.
func NewKey(artist, album string) Key {
	album = strings.TrimSpace(album)
	if album == "" {
		return ""
	}
	return Key(foldString(artist) + "|" + foldString(album))
}

// IsZero reports whether the key identifies nothing.
func (k Key) IsZero() bool { return k == "" }

func (k Key) String() string { return string(k) }

func foldString(value string) string {
	return foldCaser.String(strings.TrimSpace(value))
}

// NormalizeCatalog canonicalizes a catalog number: uppercase with all
// spaces stripped. The transform is idempotent.
func NormalizeCatalog(catno string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(catno), " ", ""))
}

// catalogPresent reports whether a raw catalog value is usable, excluding
// the literal "NONE" placeholder Discogs uses for promo pressings.
func catalogPresent(catno string) bool {
	trimmed := strings.TrimSpace(catno)
	return trimmed != "" && !strings.EqualFold(trimmed, "NONE")
}
