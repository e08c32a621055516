package catalog

import (
	"context"
	"errors"
	"testing"

	"phonodex/internal/discogs"
	"phonodex/internal/ratelimit"
)

// fakeSearcher replays canned responses keyed by call order.
type fakeSearcher struct {
	queries   []string
	responses []fakeResponse
}

type fakeResponse struct {
	results []discogs.Release
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, query string) (*discogs.SearchResponse, ratelimit.Snapshot, error) {
	f.queries = append(f.queries, query)
	if len(f.responses) == 0 {
		return &discogs.SearchResponse{}, ratelimit.Snapshot{}, nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	if resp.err != nil {
		return nil, ratelimit.Snapshot{}, resp.err
	}
	return &discogs.SearchResponse{Results: resp.results}, ratelimit.Snapshot{Total: 60, Used: 1, Remaining: 59}, nil
}

func newTestResolver(t *testing.T, searcher discogs.Searcher, opts ...ResolverOption) *Resolver {
	t.Helper()
	resolver, err := NewResolver(NewCache(), searcher, nil, opts...)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return resolver
}

func TestResolveRequiresAlbum(t *testing.T) {
	resolver := newTestResolver(t, &fakeSearcher{})
	if _, _, err := resolver.Resolve(context.Background(), Request{Artist: "A"}); !errors.Is(err, ErrMissingAlbum) {
		t.Errorf("err = %v, want ErrMissingAlbum", err)
	}
}

func TestResolveCachesAcrossCalls(t *testing.T) {
	searcher := &fakeSearcher{responses: []fakeResponse{
		{results: []discogs.Release{{Title: "Artist - Album", CatNo: "CAT 001", Year: "1990"}}},
	}}
	resolver := newTestResolver(t, searcher)
	req := Request{Artist: "Artist", Album: "Album"}

	meta, snap, err := resolver.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if meta.CatalogNumber != "CAT001" {
		t.Errorf("catalog = %q", meta.CatalogNumber)
	}
	if snap == nil {
		t.Error("network resolve should report a snapshot")
	}

	again, snap, err := resolver.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if again.CatalogNumber != "CAT001" {
		t.Errorf("cached catalog = %q", again.CatalogNumber)
	}
	if snap != nil {
		t.Error("cache hit should not report a snapshot")
	}
	if len(searcher.queries) != 1 {
		t.Errorf("queries = %d, want a single network call for two resolves", len(searcher.queries))
	}
}

func TestResolveCaseInsensitiveCacheKey(t *testing.T) {
	searcher := &fakeSearcher{responses: []fakeResponse{
		{results: []discogs.Release{{Title: "Artist - Album", CatNo: "CAT001", Year: "1990"}}},
	}}
	resolver := newTestResolver(t, searcher)

	if _, _, err := resolver.Resolve(context.Background(), Request{Artist: "Artist", Album: "Album"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, _, err := resolver.Resolve(context.Background(), Request{Artist: "ARTIST", Album: "album"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(searcher.queries) != 1 {
		t.Errorf("queries = %d, case variants should share a cache entry", len(searcher.queries))
	}
}

func TestResolveBroadensQueries(t *testing.T) {
	searcher := &fakeSearcher{responses: []fakeResponse{
		{}, // quoted query: empty
		{}, // unquoted query: empty
		{results: []discogs.Release{{Title: "Artist - Album", CatNo: "CAT001", Year: "1990"}}},
	}}
	resolver := newTestResolver(t, searcher)

	meta, _, err := resolver.Resolve(context.Background(), Request{Artist: "Artist", Album: "Album", Title: "Song"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if meta.CatalogNumber != "CAT001" {
		t.Errorf("catalog = %q", meta.CatalogNumber)
	}

	want := []string{`"Artist" "Album"`, "Artist Album", "Artist Song"}
	if len(searcher.queries) != len(want) {
		t.Fatalf("queries = %v", searcher.queries)
	}
	for i, q := range want {
		if searcher.queries[i] != q {
			t.Errorf("query %d = %q, want %q", i, searcher.queries[i], q)
		}
	}
}

func TestResolveSkipsTitleQueryWhenSameAsAlbum(t *testing.T) {
	searcher := &fakeSearcher{responses: []fakeResponse{{}}}
	resolver := newTestResolver(t, searcher)

	_, _, err := resolver.Resolve(context.Background(), Request{Artist: "Artist", Album: "Same", Title: "SAME"})
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
	if len(searcher.queries) != 2 {
		t.Errorf("queries = %v, title matching the album adds no third query", searcher.queries)
	}
}

func TestResolveNegativeCacheOnExhaustion(t *testing.T) {
	searcher := &fakeSearcher{responses: []fakeResponse{{}}}
	resolver := newTestResolver(t, searcher)
	req := Request{Artist: "Artist", Album: "Album"}

	if _, _, err := resolver.Resolve(context.Background(), req); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
	calls := len(searcher.queries)

	if _, _, err := resolver.Resolve(context.Background(), req); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want cached ErrNoMatch", err)
	}
	if len(searcher.queries) != calls {
		t.Errorf("second resolve searched again: %v", searcher.queries)
	}
}

func TestResolveNegativeCachesUnusableResults(t *testing.T) {
	searcher := &fakeSearcher{responses: []fakeResponse{
		{results: []discogs.Release{{Title: "Artist - Different Thing", CatNo: "NONE", Year: "1990"}}},
	}}
	resolver := newTestResolver(t, searcher)
	req := Request{Artist: "Artist", Album: "Album"}

	if _, _, err := resolver.Resolve(context.Background(), req); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
	calls := len(searcher.queries)

	// The no-selection verdict is cached like a zero-result one; the same
	// key never reaches the network twice.
	if _, _, err := resolver.Resolve(context.Background(), req); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want cached ErrNoMatch", err)
	}
	if len(searcher.queries) != calls {
		t.Errorf("second resolve searched again: %v", searcher.queries)
	}
}

func TestResolveSearchErrorNotCached(t *testing.T) {
	wantErr := errors.New("connection reset")
	searcher := &fakeSearcher{responses: []fakeResponse{
		{err: wantErr},
		{err: wantErr},
		{results: []discogs.Release{{Title: "Artist - Album", CatNo: "CAT001", Year: "1990"}}},
	}}
	resolver := newTestResolver(t, searcher)
	req := Request{Artist: "Artist", Album: "Album"}

	// Both queries fail, so the resolve errors without a verdict.
	if _, _, err := resolver.Resolve(context.Background(), req); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want transport error", err)
	}

	// The failure was not negative-cached; the next resolve searches again
	// and succeeds.
	meta, _, err := resolver.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("retry resolve: %v", err)
	}
	if meta.CatalogNumber != "CAT001" {
		t.Errorf("catalog = %q", meta.CatalogNumber)
	}
}

func TestResolveAlbumArtistFallbackKey(t *testing.T) {
	searcher := &fakeSearcher{responses: []fakeResponse{
		{results: []discogs.Release{{Title: "Album Artist - Album", CatNo: "CAT001", Year: "1990"}}},
	}}
	resolver := newTestResolver(t, searcher)

	// First resolve is keyed by the album artist.
	if _, _, err := resolver.Resolve(context.Background(), Request{Artist: "Album Artist", Album: "Album"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// A track credited to a featured artist on the same album reuses the
	// album-artist verdict through the fallback key.
	meta, snap, err := resolver.Resolve(context.Background(), Request{
		Artist:      "Album Artist feat. Guest",
		AlbumArtist: "Album Artist",
		Album:       "Album",
	})
	if err != nil {
		t.Fatalf("fallback resolve: %v", err)
	}
	if meta.CatalogNumber != "CAT001" {
		t.Errorf("catalog = %q", meta.CatalogNumber)
	}
	if snap != nil {
		t.Error("fallback hit should not search")
	}
	if len(searcher.queries) != 1 {
		t.Errorf("queries = %v", searcher.queries)
	}
}

type recordingStore struct {
	resolved map[Key]Metadata
	failed   map[Key]bool
}

func newRecordingStore() *recordingStore {
	return &recordingStore{resolved: make(map[Key]Metadata), failed: make(map[Key]bool)}
}

func (s *recordingStore) SaveResolved(key Key, meta Metadata) error {
	s.resolved[key] = meta
	return nil
}

func (s *recordingStore) SaveFailed(key Key) error {
	s.failed[key] = true
	return nil
}

func TestResolveWritesThroughToStore(t *testing.T) {
	store := newRecordingStore()
	searcher := &fakeSearcher{responses: []fakeResponse{
		{results: []discogs.Release{{Title: "Artist - Album", CatNo: "CAT001", Year: "1990"}}},
		{}, // second lookup finds nothing
	}}
	resolver := newTestResolver(t, searcher, WithStore(store))

	if _, _, err := resolver.Resolve(context.Background(), Request{Artist: "Artist", Album: "Album"}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, _, err := resolver.Resolve(context.Background(), Request{Artist: "Artist", Album: "Ghost"}); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v", err)
	}

	if meta, ok := store.resolved[NewKey("Artist", "Album")]; !ok || meta.CatalogNumber != "CAT001" {
		t.Errorf("resolved verdict not persisted: %+v", store.resolved)
	}
	if !store.failed[NewKey("Artist", "Ghost")] {
		t.Errorf("failed verdict not persisted: %+v", store.failed)
	}
}
