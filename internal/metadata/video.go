package metadata

import (
	"io"
	"log/slog"
	"os"
	"strings"

	mp4 "github.com/abema/go-mp4"
	"github.com/h2non/filetype"

	"media-organizer/internal/logging"
)

// isoEpochOffset is the number of seconds between the ISO BMFF epoch
// (1904-01-01T00:00:00Z) and the Unix epoch.
const isoEpochOffset = 2082844800

// sniffLen is the number of header bytes filetype needs to identify a container.
const sniffLen = 261

// isoBaseMediaMIME lists the video types that store creation times in
// moov/mvhd. Other positively identified video containers are skipped.
var isoBaseMediaMIME = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/x-m4v":     true,
	"video/3gpp":      true,
	"video/3gpp2":     true,
}

type videoField struct {
	name string
	path mp4.BoxPath
	get  func(mp4.IBox) (uint64, bool)
}

// movieFields are probed first, in order.
var movieFields = []videoField{
	{
		name: "creation_date",
		path: mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()},
		get: func(b mp4.IBox) (uint64, bool) {
			mvhd, ok := b.(*mp4.Mvhd)
			if !ok {
				return 0, false
			}
			return mvhd.GetCreationTime(), true
		},
	},
	{
		name: "last_modification",
		path: mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeMvhd()},
		get: func(b mp4.IBox) (uint64, bool) {
			mvhd, ok := b.(*mp4.Mvhd)
			if !ok {
				return 0, false
			}
			return mvhd.GetModificationTime(), true
		},
	},
}

// streamFields are probed per track when no movie field is usable.
var streamFields = []videoField{
	{
		name: "track_creation_date",
		path: mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeTrak(), mp4.BoxTypeTkhd()},
		get: func(b mp4.IBox) (uint64, bool) {
			tkhd, ok := b.(*mp4.Tkhd)
			if !ok {
				return 0, false
			}
			return tkhd.GetCreationTime(), true
		},
	},
	{
		name: "media_creation_date",
		path: mp4.BoxPath{mp4.BoxTypeMoov(), mp4.BoxTypeTrak(), mp4.BoxTypeMdia(), mp4.BoxTypeMdhd()},
		get: func(b mp4.IBox) (uint64, bool) {
			mdhd, ok := b.(*mp4.Mdhd)
			if !ok {
				return 0, false
			}
			return mdhd.GetCreationTime(), true
		},
	},
}

// VideoExtractor reads creation times from ISO base media containers
// (MP4, MOV, M4V, 3GP).
type VideoExtractor struct {
	Logger *slog.Logger
}

// NewVideoExtractor creates a VideoExtractor.
func NewVideoExtractor(logger *slog.Logger) *VideoExtractor {
	return &VideoExtractor{Logger: logger}
}

// Extract returns the first valid container timestamp of the video at path.
func (e *VideoExtractor) Extract(path string) (ts Timestamp, ok bool) {
	logger := logging.OrDiscard(e.Logger)
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("video parser panicked", "path", path, "panic", r)
			ts, ok = Timestamp{}, false
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		logger.Debug("cannot open video", "path", path, "error", err)
		return Timestamp{}, false
	}
	defer f.Close()

	if mime, known := sniff(f); known && strings.HasPrefix(mime, "video/") && !isoBaseMediaMIME[mime] {
		logger.Debug("container has no ISO BMFF metadata", "path", path, "mime", mime)
		return Timestamp{}, false
	}

	for _, field := range movieFields {
		if epoch, found := probe(f, field, logger, path); found {
			logger.Debug("found video date", "path", path, "field", field.name)
			return Timestamp{Epoch: epoch, Source: SourceVideoMetadata}, true
		}
	}
	for _, field := range streamFields {
		if epoch, found := probe(f, field, logger, path); found {
			logger.Debug("found video stream date", "path", path, "field", field.name)
			return Timestamp{Epoch: epoch, Source: SourceVideoMetadata}, true
		}
	}
	return Timestamp{}, false
}

// sniff identifies the container from its header. known is false when the
// type could not be determined.
func sniff(r io.ReadSeeker) (mime string, known bool) {
	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(r, head)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", false
	}
	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.MIME.Value, true
}

// probe returns the first valid timestamp among the boxes matching field.
func probe(r io.ReadSeeker, field videoField, logger *slog.Logger, path string) (int64, bool) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, false
	}
	boxes, err := mp4.ExtractBoxWithPayload(r, nil, field.path)
	if err != nil {
		logger.Debug("cannot parse video container", "path", path, "field", field.name, "error", err)
		return 0, false
	}
	for _, box := range boxes {
		raw, ok := field.get(box.Payload)
		if !ok || raw == 0 {
			continue
		}
		epoch := int64(raw) - isoEpochOffset
		if Valid(epoch) {
			return epoch, true
		}
		logger.Debug("video date below threshold", "path", path, "field", field.name, "epoch", epoch)
	}
	return 0, false
}
