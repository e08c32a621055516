package tags

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bogem/id3v2"

	"phonodex/internal/logging"
)

// catalogDescription is the TXXX frame description carrying the catalog
// number, matching what most taggers and players expect.
const catalogDescription = "CATALOGNUMBER"

// Update describes which fields a write should touch.
type Update struct {
	CatalogNumber string
	Year          string
	Artwork       []byte
	ArtworkMime   string
}

// Writer applies metadata updates to ID3v2 tags in place.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a tag writer. A nil logger disables logging.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logging.NewComponentLogger(logger, "tags")}
}

// Apply writes the non-empty fields of the update to the file's ID3v2 tag
// and reports whether anything changed. Files are saved once, after all
// frame edits.
func (w *Writer) Apply(path string, update Update) (bool, error) {
	if !IsMP3(path) {
		return false, fmt.Errorf("tag writing supports mp3 only: %s", path)
	}

	file, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return false, fmt.Errorf("open id3 tag: %w", err)
	}
	defer file.Close()

	changed := false

	if catno := strings.TrimSpace(update.CatalogNumber); catno != "" {
		w.setCatalogNumber(file, catno)
		changed = true
		w.logger.Debug("catalog number frame set",
			logging.String(logging.FieldFile, path),
			logging.String(logging.FieldCatalog, catno))
	}

	if year := strings.TrimSpace(update.Year); year != "" {
		file.SetYear(year)
		changed = true
		w.logger.Debug("year frame set",
			logging.String(logging.FieldFile, path),
			logging.String("year", year))
	}

	if len(update.Artwork) > 0 {
		mime := update.ArtworkMime
		if mime == "" {
			mime = "image/jpeg"
		}
		// Replace rather than append; stale covers confuse players that
		// render the first picture frame.
		file.DeleteFrames(file.CommonID("Attached picture"))
		file.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mime,
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     update.Artwork,
		})
		changed = true
		w.logger.Debug("cover art frame replaced",
			logging.String(logging.FieldFile, path),
			logging.Int("bytes", len(update.Artwork)))
	}

	if !changed {
		return false, nil
	}
	if err := file.Save(); err != nil {
		return false, fmt.Errorf("save id3 tag: %w", err)
	}
	return true, nil
}

// setCatalogNumber replaces any existing TXXX catalog frame, keeping other
// user-defined text frames intact.
func (w *Writer) setCatalogNumber(file *id3v2.Tag, catno string) {
	id := file.CommonID("User defined text information frame")
	var kept []id3v2.UserDefinedTextFrame
	for _, framer := range file.GetFrames(id) {
		udt, ok := framer.(id3v2.UserDefinedTextFrame)
		if !ok {
			continue
		}
		if !strings.EqualFold(udt.Description, catalogDescription) {
			kept = append(kept, udt)
		}
	}
	file.DeleteFrames(id)
	for _, udt := range kept {
		file.AddUserDefinedTextFrame(udt)
	}
	file.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: catalogDescription,
		Value:       catno,
	})
}

// ReadCatalogNumber returns the TXXX catalog frame value, empty when absent.
func ReadCatalogNumber(path string) (string, error) {
	file, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return "", fmt.Errorf("open id3 tag: %w", err)
	}
	defer file.Close()

	id := file.CommonID("User defined text information frame")
	for _, framer := range file.GetFrames(id) {
		udt, ok := framer.(id3v2.UserDefinedTextFrame)
		if !ok {
			continue
		}
		if strings.EqualFold(udt.Description, catalogDescription) {
			return udt.Value, nil
		}
	}
	return "", nil
}
