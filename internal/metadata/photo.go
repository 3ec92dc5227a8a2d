package metadata

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"media-organizer/internal/logging"
)

// exifLayout is the fixed textual layout of EXIF date tags.
const exifLayout = "2006:01:02 15:04:05"

// photoDateTags is searched in order; the first usable value wins.
var photoDateTags = []exif.FieldName{
	exif.DateTimeOriginal,
	exif.DateTime,
	exif.DateTimeDigitized,
}

// PhotoExtractor reads EXIF date tags from image files.
type PhotoExtractor struct {
	// Location interprets the zone-less EXIF values. Defaults to time.Local.
	Location *time.Location
	Logger   *slog.Logger
}

// NewPhotoExtractor creates a PhotoExtractor.
func NewPhotoExtractor(loc *time.Location, logger *slog.Logger) *PhotoExtractor {
	return &PhotoExtractor{Location: loc, Logger: logger}
}

// Extract returns the first valid EXIF date of the image at path.
func (e *PhotoExtractor) Extract(path string) (ts Timestamp, ok bool) {
	logger := logging.OrDiscard(e.Logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("EXIF decoder panicked", "path", path, "panic", r)
			ts, ok = Timestamp{}, false
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		logger.Debug("cannot open image", "path", path, "error", err)
		return Timestamp{}, false
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil {
		logger.Debug("no EXIF data", "path", path, "error", err)
		return Timestamp{}, false
	}
	if err != nil {
		// Sub-IFD errors still leave the main directory usable.
		logger.Debug("partial EXIF data", "path", path, "error", err)
	}

	for _, name := range photoDateTags {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			logger.Warn("unreadable EXIF date", "path", path, "tag", string(name), "error", err)
			continue
		}
		epoch, err := parseExifDate(raw, e.Location)
		if err != nil {
			logger.Warn("malformed EXIF date", "path", path, "tag", string(name), "value", raw, "error", err)
			continue
		}
		if !Valid(epoch) {
			logger.Debug("EXIF date below threshold", "path", path, "tag", string(name), "value", raw)
			continue
		}
		logger.Debug("found EXIF date", "path", path, "tag", string(name), "value", raw)
		return Timestamp{Epoch: epoch, Source: SourceEXIF}, true
	}
	return Timestamp{}, false
}

// parseExifDate parses "YYYY:MM:DD HH:MM:SS" in loc and returns epoch seconds.
func parseExifDate(raw string, loc *time.Location) (int64, error) {
	if loc == nil {
		loc = time.Local
	}
	raw = strings.TrimRight(strings.TrimSpace(raw), "\x00")
	t, err := time.ParseInLocation(exifLayout, raw, loc)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
