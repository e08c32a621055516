// Package organizer moves tagged audio files into a structured library
// tree derived from a placeholder format string.
package organizer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"phonodex/internal/logging"
)

// Fields holds the tag values that feed the format placeholders.
type Fields struct {
	Genre         string
	Year          string
	CatalogNumber string
	AlbumArtist   string
	Album         string
	Artist        string
	Title         string
}

// ErrMissingFields means the file's tags do not fill every placeholder the
// format references; moving it would produce a broken path.
type ErrMissingFields struct {
	Fields []string
}

func (e *ErrMissingFields) Error() string {
	return "missing required tag fields: " + strings.Join(e.Fields, ", ")
}

// Organizer computes and executes library moves.
type Organizer struct {
	library string
	format  string
	logger  *slog.Logger
}

// New creates an organizer rooted at library. The format uses %placeholder%
// tokens for genre, year, catalognumber, albumartist, album, artist, and
// title.
func New(library, format string, logger *slog.Logger) (*Organizer, error) {
	library = strings.TrimSpace(library)
	if library == "" {
		return nil, errors.New("organizer library path required")
	}
	format = strings.TrimSpace(format)
	if format == "" {
		return nil, errors.New("organizer format required")
	}
	return &Organizer{
		library: library,
		format:  format,
		logger:  logging.NewComponentLogger(logger, "organizer"),
	}, nil
}

// Plan returns the destination path for a file without touching the
// filesystem. Every placeholder the format references must have a value.
func (o *Organizer) Plan(path string, fields Fields) (string, error) {
	values := map[string]string{
		"genre":         firstGenre(fields.Genre),
		"year":          fields.Year,
		"catalognumber": fields.CatalogNumber,
		"albumartist":   fields.AlbumArtist,
		"album":         fields.Album,
		"artist":        fields.Artist,
		"title":         fields.Title,
	}

	var missing []string
	dest := o.format
	for name, value := range values {
		placeholder := "%" + name + "%"
		if !strings.Contains(o.format, placeholder) {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			missing = append(missing, name)
			continue
		}
		dest = strings.ReplaceAll(dest, placeholder, sanitizeComponent(value))
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", &ErrMissingFields{Fields: missing}
	}

	if ext := filepath.Ext(path); ext != "" && !strings.HasSuffix(dest, ext) {
		dest += ext
	}
	return filepath.Join(o.library, filepath.FromSlash(dest)), nil
}

// Move relocates the file to its planned destination, creating directories
// as needed. It reports the destination and whether the file actually
// moved; a file already in place is left alone.
func (o *Organizer) Move(path string, fields Fields) (string, bool, error) {
	dest, err := o.Plan(path, fields)
	if err != nil {
		return "", false, err
	}
	if dest == path {
		o.logger.Debug("file already in place", logging.String(logging.FieldFile, path))
		return dest, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", false, fmt.Errorf("create destination directory: %w", err)
	}
	if _, err := os.Stat(dest); err == nil {
		o.logger.Warn("destination exists, overwriting",
			logging.String(logging.FieldFile, dest))
	}
	if err := moveFile(path, dest); err != nil {
		return "", false, err
	}

	o.logger.Info("file organized",
		logging.String("from", path),
		logging.String("to", dest))
	return dest, true, nil
}

// firstGenre keeps only the leading genre when tags carry separator-joined
// lists.
func firstGenre(genre string) string {
	for _, sep := range []string{"\\", ";"} {
		if i := strings.Index(genre, sep); i >= 0 {
			genre = genre[:i]
		}
	}
	return strings.TrimSpace(genre)
}

// sanitizeComponent strips characters that are forbidden in file names on
// common filesystems, plus leading and trailing spaces and dots.
func sanitizeComponent(value string) string {
	replacer := strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", `"`, "_",
		"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
	)
	return strings.Trim(replacer.Replace(value), " .")
}

// moveFile renames when possible and falls back to copy-and-remove across
// filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("copy file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}
	return nil
}
