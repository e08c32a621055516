package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"phonodex/internal/discogs"
	"phonodex/internal/logging"
	"phonodex/internal/ratelimit"
)

// ErrMissingAlbum means the request carried no album name; there is nothing
// to search for and nothing to cache.
var ErrMissingAlbum = errors.New("no album metadata present")

// ErrNoMatch means the lookup is known to have no usable answer, either
// from the negative cache or after exhausting all search queries.
var ErrNoMatch = errors.New("no matching release found")

// Request describes one lookup. Artist and Album drive the search; an
// AlbumArtist that differs from Artist enables the read-only fallback cache
// key, and Title feeds the broadest search query when it differs from the
// album name.
type Request struct {
	Artist      string
	AlbumArtist string
	Album       string
	Title       string
}

// Store persists verdicts across runs. Implementations must be safe for
// concurrent use.
type Store interface {
	SaveResolved(key Key, meta Metadata) error
	SaveFailed(key Key) error
}

// Resolver answers Requests from the verdict cache, searching Discogs on a
// miss and selecting a release through the staged matcher. Safe for
// concurrent use; two goroutines racing on the same uncached key may both
// search, and last write wins.
type Resolver struct {
	cache    *Cache
	searcher discogs.Searcher
	matcher  *Matcher
	store    Store
	logger   *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStore enables write-through persistence of verdicts.
func WithStore(store Store) ResolverOption {
	return func(r *Resolver) {
		r.store = store
	}
}

// NewResolver creates a resolver over the given cache and search client.
func NewResolver(cache *Cache, searcher discogs.Searcher, logger *slog.Logger, opts ...ResolverOption) (*Resolver, error) {
	if cache == nil {
		return nil, errors.New("verdict cache required")
	}
	if searcher == nil {
		return nil, errors.New("searcher required")
	}
	resolver := &Resolver{
		cache:    cache,
		searcher: searcher,
		matcher:  NewMatcher(logger),
		logger:   logging.NewComponentLogger(logger, "resolver"),
	}
	for _, opt := range opts {
		opt(resolver)
	}
	return resolver, nil
}

// Resolve returns the authoritative metadata for a request. The snapshot is
// non-nil only when a network search ran; cache hits cost nothing. A nil
// metadata with ErrNoMatch is a definitive negative answer.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Metadata, *ratelimit.Snapshot, error) {
	artist := strings.TrimSpace(req.Artist)
	album := strings.TrimSpace(req.Album)
	title := strings.TrimSpace(req.Title)
	if album == "" {
		return nil, nil, ErrMissingAlbum
	}

	primary := NewKey(artist, album)
	fallback := NewKey(strings.TrimSpace(req.AlbumArtist), album)

	meta, outcome := r.cache.Lookup(primary, fallback)
	switch outcome {
	case OutcomeResolved:
		r.logger.Debug("cache hit",
			logging.String(logging.FieldArtist, artist),
			logging.String(logging.FieldAlbum, album),
			logging.String(logging.FieldCatalog, meta.CatalogNumber))
		return &meta, nil, nil
	case OutcomeFailed:
		r.logger.Debug("skipping known failed lookup",
			logging.String(logging.FieldArtist, artist),
			logging.String(logging.FieldAlbum, album))
		return nil, nil, ErrNoMatch
	}

	r.logger.Info("requesting release metadata",
		logging.String(logging.FieldArtist, artist),
		logging.String(logging.FieldAlbum, album))

	results, snap, searchErr := r.search(ctx, artist, album, title)
	if len(results) == 0 {
		if searchErr != nil {
			// Transient failure, not a verdict; the next attempt may
			// succeed, so nothing is cached.
			return nil, snap, searchErr
		}
		r.logger.Info("caching failed lookup",
			logging.String(logging.FieldArtist, artist),
			logging.String(logging.FieldAlbum, album))
		r.storeFailed(primary)
		return nil, snap, ErrNoMatch
	}

	selection, ok := r.matcher.Match(artist, album, results)
	if !ok {
		// A full result set with nothing usable is as definitive as an
		// empty one; record the verdict so the key never searches again.
		r.logger.Warn("no usable catalog number among results",
			logging.String(logging.FieldArtist, artist),
			logging.String(logging.FieldAlbum, album),
			logging.Int("results", len(results)))
		r.storeFailed(primary)
		return nil, snap, ErrNoMatch
	}

	resolved := Metadata{
		CatalogNumber: selection.Catalog,
		Year:          string(selection.Release.Year),
		Album:         selection.Release.Title,
		CoverImage:    selection.Release.CoverImage,
		Thumb:         selection.Release.Thumb,
	}
	r.storeResolved(primary, resolved)
	r.logger.Info("resolved release metadata",
		logging.String(logging.FieldArtist, artist),
		logging.String(logging.FieldAlbum, album),
		logging.String(logging.FieldCatalog, resolved.CatalogNumber),
		logging.String("year", resolved.Year))
	return &resolved, snap, nil
}

// search issues up to three progressively broader queries and stops at the
// first one that yields results. Query failures are not verdicts; the next
// broader query still runs, and the last error is reported only when every
// query came back empty.
func (r *Resolver) search(ctx context.Context, artist, album, title string) ([]discogs.Release, *ratelimit.Snapshot, error) {
	queries := []string{
		fmt.Sprintf("%q %q", artist, album),
		fmt.Sprintf("%s %s", artist, album),
	}
	if title != "" && foldString(title) != foldString(album) {
		queries = append(queries, fmt.Sprintf("%s %s", artist, title))
	}

	var lastSnap *ratelimit.Snapshot
	var lastErr error
	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			return nil, lastSnap, err
		}
		payload, snap, err := r.searcher.Search(ctx, query)
		lastSnap = &snap
		if err != nil {
			lastErr = err
			r.logger.Warn("search query failed",
				logging.String("query", query),
				logging.Error(err))
			continue
		}
		if len(payload.Results) > 0 {
			if i > 0 {
				r.logger.Debug("broader query matched",
					logging.Int("query_index", i+1),
					logging.Int("results", len(payload.Results)))
			}
			return payload.Results, lastSnap, nil
		}
		r.logger.Debug("query returned no results, broadening",
			logging.String("query", query))
	}
	return nil, lastSnap, lastErr
}

func (r *Resolver) storeResolved(key Key, meta Metadata) {
	r.cache.StoreResolved(key, meta)
	if r.store == nil {
		return
	}
	if err := r.store.SaveResolved(key, meta); err != nil {
		r.logger.Warn("persisting resolved verdict failed",
			logging.String("key", key.String()),
			logging.Error(err))
	}
}

func (r *Resolver) storeFailed(key Key) {
	r.cache.StoreFailed(key)
	if r.store == nil {
		return
	}
	if err := r.store.SaveFailed(key); err != nil {
		r.logger.Warn("persisting failed verdict failed",
			logging.String("key", key.String()),
			logging.Error(err))
	}
}
