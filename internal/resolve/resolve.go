// Package resolve picks the one authoritative timestamp for a media file.
//
// Sources are tried in a fixed order and the first valid one wins:
//
//  1. metadata embedded in the file (EXIF for photos, container for videos)
//  2. the sidecar JSON: photoTakenTime, then creationTime
//  3. the filesystem birth time
//  4. the filesystem modification time, accepted unconditionally
//
// Step 2 only applies when a sidecar was paired with the file. Steps 1 to 3
// reject values at or below metadata.MinValidTimestamp.
package resolve

import (
	"log/slog"
	"time"

	"media-organizer/internal/logging"
	"media-organizer/internal/media"
	"media-organizer/internal/metadata"
	"media-organizer/internal/sidecar"
)

// Resolver runs the timestamp fallback chain.
type Resolver struct {
	Types  media.Types
	Photo  metadata.Extractor
	Video  metadata.Extractor
	Files  FileTimesReader
	Logger *slog.Logger

	// Location is the zone dates are logged in. Nil means local time.
	Location *time.Location
}

// New creates a Resolver. Nil extractors never find anything; a nil files
// reader uses the real filesystem.
func New(types media.Types, photo, video metadata.Extractor, files FileTimesReader, logger *slog.Logger) *Resolver {
	if photo == nil {
		photo = metadata.None
	}
	if video == nil {
		video = metadata.None
	}
	if files == nil {
		files = OSFileTimes{}
	}
	return &Resolver{
		Types:  types,
		Photo:  photo,
		Video:  video,
		Files:  files,
		Logger: logging.OrDiscard(logger),
	}
}

// ResolveWithSidecar resolves the timestamp of a media file paired with the
// parsed sidecar meta. It always returns a value.
func (r *Resolver) ResolveWithSidecar(mediaPath string, meta *sidecar.Metadata) metadata.Timestamp {
	if ts, ok := r.embedded(mediaPath); ok {
		return r.chosen(mediaPath, ts)
	}
	if ts, ok := fromSidecar(meta); ok {
		return r.chosen(mediaPath, ts)
	}
	return r.chosen(mediaPath, r.filesystem(mediaPath))
}

// ResolveWithoutSidecar resolves the timestamp of a media file that has no
// sidecar. No JSON is consulted.
func (r *Resolver) ResolveWithoutSidecar(mediaPath string) metadata.Timestamp {
	if ts, ok := r.embedded(mediaPath); ok {
		return r.chosen(mediaPath, ts)
	}
	return r.chosen(mediaPath, r.filesystem(mediaPath))
}

func (r *Resolver) embedded(path string) (metadata.Timestamp, bool) {
	var ts metadata.Timestamp
	var ok bool
	switch r.Types.Classify(path) {
	case media.KindPhoto:
		ts, ok = r.Photo.Extract(path)
	case media.KindVideo:
		ts, ok = r.Video.Extract(path)
	default:
		return metadata.Timestamp{}, false
	}
	// Injected extractors are not required to apply the threshold.
	if ok && !metadata.Valid(ts.Epoch) {
		r.Logger.Debug("embedded date below threshold", "path", path, "epoch", ts.Epoch)
		return metadata.Timestamp{}, false
	}
	return ts, ok
}

func fromSidecar(meta *sidecar.Metadata) (metadata.Timestamp, bool) {
	if epoch, ok := meta.PhotoTaken(); ok && metadata.Valid(epoch) {
		return metadata.Timestamp{Epoch: epoch, Source: metadata.SourceJSONPhotoTaken}, true
	}
	if epoch, ok := meta.Created(); ok && metadata.Valid(epoch) {
		return metadata.Timestamp{Epoch: epoch, Source: metadata.SourceJSONCreationTime}, true
	}
	return metadata.Timestamp{}, false
}

// filesystem returns the birth time when it is trustworthy, otherwise the
// modification time. A birth time later than the modification time belongs
// to a copy, not to the content, and is skipped.
func (r *Resolver) filesystem(path string) metadata.Timestamp {
	ft, err := r.Files.Times(path)
	if err != nil {
		r.Logger.Warn("cannot stat file", "path", path, "error", err)
		return metadata.Timestamp{Source: metadata.SourceFileModificationTime}
	}
	if ft.HasBirth {
		birth := ft.Birth.Unix()
		if metadata.Valid(birth) && !ft.Birth.After(ft.Mod) {
			return metadata.Timestamp{Epoch: birth, Source: metadata.SourceFileCreationTime}
		}
	}
	return metadata.Timestamp{Epoch: ft.Mod.Unix(), Source: metadata.SourceFileModificationTime}
}

func (r *Resolver) chosen(path string, ts metadata.Timestamp) metadata.Timestamp {
	r.Logger.Info("resolved date", "path", path, "source", string(ts.Source), "date", ts.Time(r.Location).Format("2006-01-02 15:04:05"))
	return ts
}
