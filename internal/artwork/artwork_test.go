package artwork

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func artServer(t *testing.T, body []byte, gotHeaders *http.Header) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotHeaders != nil {
			*gotHeaders = r.Header.Clone()
		}
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchSendsIdentifyingHeaders(t *testing.T) {
	var headers http.Header
	server := artServer(t, encodePNG(t, 10, 10), &headers)
	fetcher := NewFetcher(100, 100, 1000, time.Second, nil)

	if _, _, err := fetcher.Fetch(context.Background(), server.URL, ""); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if headers.Get("Referer") != "https://www.discogs.com/" {
		t.Errorf("Referer = %q", headers.Get("Referer"))
	}
	if headers.Get("User-Agent") != "phonodex/1.0" {
		t.Errorf("User-Agent = %q", headers.Get("User-Agent"))
	}
}

func TestFetchSmallImagePassesThrough(t *testing.T) {
	original := encodePNG(t, 50, 50)
	server := artServer(t, original, nil)
	fetcher := NewFetcher(100, 100, 1000, time.Second, nil)

	got, mime, err := fetcher.Fetch(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q", mime)
	}
	if !bytes.Equal(got, original) {
		t.Error("small image should not be re-encoded")
	}
}

func TestFetchResizesOversizedImage(t *testing.T) {
	server := artServer(t, encodePNG(t, 400, 200), nil)
	fetcher := NewFetcher(100, 100, 1000, time.Second, nil)

	got, mime, err := fetcher.Fetch(context.Background(), server.URL, "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("mime = %q", mime)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	size := decoded.Bounds().Size()
	if size.X != 100 || size.Y != 50 {
		t.Errorf("resized to %dx%d, want 100x50 with aspect preserved", size.X, size.Y)
	}
}

func TestFetchPrefersCoverOverThumb(t *testing.T) {
	var coverCalls int
	cover := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		coverCalls++
		w.Write(encodePNG(t, 10, 10))
	}))
	defer cover.Close()
	thumb := artServer(t, encodePNG(t, 5, 5), nil)

	fetcher := NewFetcher(100, 100, 1000, time.Second, nil)
	if _, _, err := fetcher.Fetch(context.Background(), cover.URL, thumb.URL); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if coverCalls != 1 {
		t.Errorf("cover calls = %d", coverCalls)
	}
}

func TestFetchNoURLs(t *testing.T) {
	fetcher := NewFetcher(100, 100, 1000, time.Second, nil)
	if _, _, err := fetcher.Fetch(context.Background(), "", ""); !errors.Is(err, ErrNoArtwork) {
		t.Errorf("err = %v, want ErrNoArtwork", err)
	}
}

func TestFetchRejectsNonImage(t *testing.T) {
	server := artServer(t, []byte("<html>not found</html>"), nil)
	fetcher := NewFetcher(100, 100, 1000, time.Second, nil)
	if _, _, err := fetcher.Fetch(context.Background(), server.URL, ""); err == nil {
		t.Fatal("expected decode error for non-image body")
	}
}

func TestFetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := NewFetcher(100, 100, 1000, time.Second, nil)
	if _, _, err := fetcher.Fetch(context.Background(), server.URL, ""); err == nil {
		t.Fatal("expected error for HTTP 403")
	}
}
