package tags

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// FileTags is the metadata read from one audio file that drives a lookup.
type FileTags struct {
	Artist      string
	AlbumArtist string
	Album       string
	Title       string
	Genre       string
	Year        int
	Format      string
}

// ReadFile extracts the identifying tags from an audio file.
func ReadFile(path string) (FileTags, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileTags{}, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return FileTags{}, fmt.Errorf("read tags from %s: %w", path, err)
	}

	return FileTags{
		Artist:      strings.TrimSpace(meta.Artist()),
		AlbumArtist: strings.TrimSpace(meta.AlbumArtist()),
		Album:       strings.TrimSpace(meta.Album()),
		Title:       strings.TrimSpace(meta.Title()),
		Genre:       strings.TrimSpace(meta.Genre()),
		Year:        meta.Year(),
		Format:      string(meta.Format()),
	}, nil
}

// IsMP3 reports whether the path has an MP3 extension; only those files are
// eligible for tag writing.
func IsMP3(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp3")
}

// YearString renders a tag year for display, empty when unknown.
func YearString(year int) string {
	if year <= 0 {
		return ""
	}
	return strconv.Itoa(year)
}
