// Package metadata extracts capture timestamps embedded in photo and video
// files.
//
// Extractors never fail: a file that cannot be opened, decoded, or that
// carries no usable date yields (Timestamp{}, false). Problems are logged.
package metadata

import "time"

// MinValidTimestamp is 2000-01-01T00:00:00Z. Metadata timestamps at or below
// it are treated as writer bugs (zeroed fields, epoch-origin sentinels).
const MinValidTimestamp int64 = 946684800

// Source labels where a resolved timestamp came from.
type Source string

const (
	SourceEXIF                 Source = "EXIF"
	SourceVideoMetadata        Source = "VideoMetadata"
	SourceJSONPhotoTaken       Source = "JSONPhotoTaken"
	SourceJSONCreationTime     Source = "JSONCreationTime"
	SourceFileCreationTime     Source = "FileCreationTime"
	SourceFileModificationTime Source = "FileModificationTime"
)

// Timestamp is an epoch-seconds value with the label of its source.
type Timestamp struct {
	Epoch  int64
	Source Source
}

// Time returns the timestamp as a time.Time in loc.
func (t Timestamp) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(t.Epoch, 0).In(loc)
}

// Valid reports whether epoch is strictly above MinValidTimestamp.
func Valid(epoch int64) bool {
	return epoch > MinValidTimestamp
}

// Extractor reads an embedded capture timestamp from a media file.
type Extractor interface {
	Extract(path string) (Timestamp, bool)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(path string) (Timestamp, bool)

func (f ExtractorFunc) Extract(path string) (Timestamp, bool) { return f(path) }

// None is an Extractor that never finds a timestamp.
var None Extractor = ExtractorFunc(func(string) (Timestamp, bool) { return Timestamp{}, false })
