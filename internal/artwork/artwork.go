// Package artwork downloads release cover images and bounds them to a
// configured size before they are embedded in audio files.
package artwork

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/time/rate"

	"phonodex/internal/logging"
)

const (
	// Discogs image CDN rejects requests without a browser-looking
	// Referer.
	refererHeader = "https://www.discogs.com/"
	userAgent     = "phonodex/1.0"

	maxDownloadBytes = 20 << 20
	jpegQuality      = 90
)

// ErrNoArtwork means the release carried neither a cover image nor a
// thumbnail URL.
var ErrNoArtwork = errors.New("release has no artwork url")

// Fetcher downloads and resizes cover art. Downloads are paced with a token
// bucket so batch runs do not hammer the image CDN.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	maxWidth   int
	maxHeight  int
	logger     *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// NewFetcher creates a fetcher bounding images to maxWidth x maxHeight and
// pacing downloads at requestsPerSecond.
func NewFetcher(maxWidth, maxHeight int, requestsPerSecond float64, timeout time.Duration, logger *slog.Logger, opts ...Option) *Fetcher {
	if maxWidth <= 0 {
		maxWidth = 1000
	}
	if maxHeight <= 0 {
		maxHeight = 1000
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	fetcher := &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		maxWidth:   maxWidth,
		maxHeight:  maxHeight,
		logger:     logging.NewComponentLogger(logger, "artwork"),
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch downloads the cover image, preferring the full image over the
// thumbnail, and returns JPEG bytes no larger than the configured bounds.
func (f *Fetcher) Fetch(ctx context.Context, coverURL, thumbURL string) ([]byte, string, error) {
	imageURL := coverURL
	if imageURL == "" {
		imageURL = thumbURL
	}
	if imageURL == "" {
		return nil, "", ErrNoArtwork
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	raw, err := f.download(ctx, imageURL)
	if err != nil {
		return nil, "", err
	}

	resized, mime, err := f.bound(raw)
	if err != nil {
		return nil, "", err
	}
	f.logger.Debug("artwork fetched",
		logging.String("url", imageURL),
		logging.Int("bytes", len(resized)))
	return resized, mime, nil
}

func (f *Fetcher) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build artwork request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", refererHeader)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("artwork download returned HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read artwork body: %w", err)
	}
	return raw, nil
}

// bound decodes the image and scales it down when it exceeds the configured
// dimensions. Images already within bounds pass through untouched.
func (f *Fetcher) bound(raw []byte) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("decode artwork: %w", err)
	}

	size := img.Bounds().Size()
	if size.X <= f.maxWidth && size.Y <= f.maxHeight {
		return raw, "image/" + format, nil
	}

	scaleX := float64(f.maxWidth) / float64(size.X)
	scaleY := float64(f.maxHeight) / float64(size.Y)
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}
	width := int(float64(size.X) * scale)
	height := int(float64(size.Y) * scale)
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode artwork: %w", err)
	}
	f.logger.Debug("artwork resized",
		logging.Int("from_width", size.X),
		logging.Int("from_height", size.Y),
		logging.Int("to_width", width),
		logging.Int("to_height", height))
	return buf.Bytes(), "image/jpeg", nil
}
