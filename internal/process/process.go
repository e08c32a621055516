// Package process runs the per-file tagging pipeline: read identifying
// tags, resolve release metadata, write the resolved fields back, and
// optionally file the result into the library. Files are processed
// concurrently with a bounded worker pool; one file's failure never stops
// the batch.
package process

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"phonodex/internal/artwork"
	"phonodex/internal/catalog"
	"phonodex/internal/logging"
	"phonodex/internal/organizer"
	"phonodex/internal/tags"
)

// Options controls what the pipeline writes and how wide it runs.
type Options struct {
	Workers      int
	WriteCatalog bool
	WriteYear    bool
	WriteArt     bool
}

// Outcome classifies what happened to one file.
type Outcome int

const (
	// OutcomeUpdated means tags were written.
	OutcomeUpdated Outcome = iota
	// OutcomeUnchanged means metadata resolved but nothing needed writing.
	OutcomeUnchanged
	// OutcomeNoMatch means no release could be found for the file.
	OutcomeNoMatch
	// OutcomeError means the file failed with the attached error.
	OutcomeError
)

// FileResult reports the pipeline's verdict for one file.
type FileResult struct {
	Path     string
	Tags     tags.FileTags
	Metadata *catalog.Metadata
	Outcome  Outcome
	MovedTo  string
	Err      error
}

// Summary aggregates a batch run.
type Summary struct {
	Processed int
	Updated   int
	NoMatch   int
	Errors    int
}

// Pipeline wires the resolver, tag writer, artwork fetcher, and organizer
// into one per-file flow.
type Pipeline struct {
	resolver  *catalog.Resolver
	writer    *tags.Writer
	fetcher   *artwork.Fetcher
	organizer *organizer.Organizer
	opts      Options
	logger    *slog.Logger
}

// PipelineOption configures optional pipeline stages.
type PipelineOption func(*Pipeline)

// WithArtworkFetcher enables cover art embedding.
func WithArtworkFetcher(fetcher *artwork.Fetcher) PipelineOption {
	return func(p *Pipeline) { p.fetcher = fetcher }
}

// WithOrganizer enables library moves after tagging.
func WithOrganizer(org *organizer.Organizer) PipelineOption {
	return func(p *Pipeline) { p.organizer = org }
}

// New creates a pipeline.
func New(resolver *catalog.Resolver, writer *tags.Writer, opts Options, logger *slog.Logger, pipelineOpts ...PipelineOption) (*Pipeline, error) {
	if resolver == nil {
		return nil, errors.New("resolver required")
	}
	if writer == nil {
		return nil, errors.New("tag writer required")
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	pipeline := &Pipeline{
		resolver: resolver,
		writer:   writer,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "process"),
	}
	for _, opt := range pipelineOpts {
		opt(pipeline)
	}
	return pipeline, nil
}

// Run processes every path with a bounded worker pool. onResult, when
// non-nil, observes each file's verdict as it lands; calls are serialized.
// Run returns early only when the context is canceled.
func (p *Pipeline) Run(ctx context.Context, paths []string, onResult func(FileResult)) (Summary, error) {
	var (
		mu      sync.Mutex
		summary Summary
	)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(p.opts.Workers)

	for _, path := range paths {
		path := path
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := p.processFile(ctx, path)

			mu.Lock()
			summary.Processed++
			switch result.Outcome {
			case OutcomeUpdated:
				summary.Updated++
			case OutcomeNoMatch:
				summary.NoMatch++
			case OutcomeError:
				summary.Errors++
			}
			if onResult != nil {
				onResult(result)
			}
			mu.Unlock()

			// A canceled resolve aborts the batch; anything else is a
			// per-file verdict already recorded above.
			if errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, context.DeadlineExceeded) {
				return result.Err
			}
			return nil
		})
	}

	err := group.Wait()
	return summary, err
}

func (p *Pipeline) processFile(ctx context.Context, path string) FileResult {
	result := FileResult{Path: path}

	fileTags, err := tags.ReadFile(path)
	if err != nil {
		result.Outcome = OutcomeError
		result.Err = err
		return result
	}
	result.Tags = fileTags

	meta, _, err := p.resolver.Resolve(ctx, catalog.Request{
		Artist:      fileTags.Artist,
		AlbumArtist: fileTags.AlbumArtist,
		Album:       fileTags.Album,
		Title:       fileTags.Title,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrNoMatch) || errors.Is(err, catalog.ErrMissingAlbum) {
			result.Outcome = OutcomeNoMatch
			result.Err = err
			return result
		}
		result.Outcome = OutcomeError
		result.Err = err
		return result
	}
	result.Metadata = meta

	update := p.buildUpdate(ctx, path, meta)
	if !tags.IsMP3(path) {
		p.logger.Debug("skipping tag write for non-mp3 file",
			logging.String(logging.FieldFile, path))
		result.Outcome = OutcomeUnchanged
		return result
	}

	changed, err := p.writer.Apply(path, update)
	if err != nil {
		result.Outcome = OutcomeError
		result.Err = err
		return result
	}
	if changed {
		result.Outcome = OutcomeUpdated
	} else {
		result.Outcome = OutcomeUnchanged
	}

	if p.organizer != nil {
		dest, moved, err := p.organizer.Move(path, organizer.Fields{
			Genre:         fileTags.Genre,
			Year:          meta.Year,
			CatalogNumber: meta.CatalogNumber,
			AlbumArtist:   albumArtistOrArtist(fileTags),
			Album:         fileTags.Album,
			Artist:        fileTags.Artist,
			Title:         fileTags.Title,
		})
		if err != nil {
			// Tagging already succeeded; a failed move downgrades to a
			// warning rather than failing the file.
			p.logger.Warn("library move failed",
				logging.String(logging.FieldFile, path),
				logging.Error(err))
		} else if moved {
			result.MovedTo = dest
		}
	}
	return result
}

// buildUpdate assembles the tag update from the enabled write options.
// Artwork fetch failures are logged and dropped; the catalog number and
// year still get written.
func (p *Pipeline) buildUpdate(ctx context.Context, path string, meta *catalog.Metadata) tags.Update {
	var update tags.Update
	if p.opts.WriteCatalog {
		update.CatalogNumber = meta.CatalogNumber
	}
	if p.opts.WriteYear {
		update.Year = meta.Year
	}
	if p.opts.WriteArt && p.fetcher != nil {
		art, mime, err := p.fetcher.Fetch(ctx, meta.CoverImage, meta.Thumb)
		switch {
		case errors.Is(err, artwork.ErrNoArtwork):
			p.logger.Debug("release has no artwork",
				logging.String(logging.FieldFile, path))
		case err != nil:
			p.logger.Warn("artwork fetch failed",
				logging.String(logging.FieldFile, path),
				logging.Error(err))
		default:
			update.Artwork = art
			update.ArtworkMime = mime
		}
	}
	return update
}

func albumArtistOrArtist(fileTags tags.FileTags) string {
	if fileTags.AlbumArtist != "" {
		return fileTags.AlbumArtist
	}
	return fileTags.Artist
}

var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
}

// CollectFiles expands the given paths into a sorted, de-duplicated list of
// audio files, walking directories recursively.
func CollectFiles(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	add := func(path string) {
		if !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return
		}
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(entry string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				add(entry)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}
