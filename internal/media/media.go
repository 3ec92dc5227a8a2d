// Package media classifies files as photos or videos by extension.
package media

import (
	"path/filepath"
	"sort"
	"strings"
)

// Kind is the inferred media type of a file.
type Kind string

const (
	KindUnknown Kind = ""
	KindPhoto   Kind = "photo"
	KindVideo   Kind = "video"
)

// DefaultPhotoExts contains the photo extensions recognized out of the box.
// These files are candidates for EXIF date extraction.
var DefaultPhotoExts = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp",
	".raw", ".cr2", ".nef", ".arw", ".dng", ".orf", ".rw2", ".pef",
	".heic",
}

// DefaultVideoExts contains the video extensions recognized out of the box.
var DefaultVideoExts = []string{
	".mp4", ".mov", ".avi", ".wmv", ".flv", ".webm", ".mkv",
	".m4v", ".3gp", ".mpg", ".mpeg",
}

// Types holds the photo and video extension sets. A Types value is
// immutable once built; pass it to whatever needs to classify files.
type Types struct {
	photo map[string]bool
	video map[string]bool
	all   []string
}

// NewTypes builds a Types from the given extension lists. Extensions are
// normalized to lower case with a leading dot. An extension listed as both
// photo and video is treated as a photo.
func NewTypes(photoExts, videoExts []string) Types {
	t := Types{
		photo: make(map[string]bool, len(photoExts)),
		video: make(map[string]bool, len(videoExts)),
	}
	for _, ext := range photoExts {
		if ext = normalizeExt(ext); ext != "" {
			t.photo[ext] = true
		}
	}
	for _, ext := range videoExts {
		if ext = normalizeExt(ext); ext != "" && !t.photo[ext] {
			t.video[ext] = true
		}
	}
	for ext := range t.photo {
		t.all = append(t.all, ext)
	}
	for ext := range t.video {
		t.all = append(t.all, ext)
	}
	sort.Strings(t.all)
	return t
}

// DefaultTypes returns the built-in extension sets.
func DefaultTypes() Types {
	return NewTypes(DefaultPhotoExts, DefaultVideoExts)
}

// Classify returns the kind of the file at path based on its extension.
func (t Types) Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case t.photo[ext]:
		return KindPhoto
	case t.video[ext]:
		return KindVideo
	default:
		return KindUnknown
	}
}

// IsMedia reports whether path has a recognized photo or video extension.
func (t Types) IsMedia(path string) bool {
	return t.Classify(path) != KindUnknown
}

// IsMediaExt reports whether ext (with leading dot, any case) is recognized.
func (t Types) IsMediaExt(ext string) bool {
	ext = strings.ToLower(ext)
	return t.photo[ext] || t.video[ext]
}

// Extensions returns every recognized extension, lower case, sorted.
// The returned slice is a copy.
func (t Types) Extensions() []string {
	return append([]string(nil), t.all...)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Asset is a media file discovered in the source tree, optionally paired
// with the sidecar JSON file describing it.
type Asset struct {
	Path        string
	Kind        Kind
	SidecarPath string
}

// HasSidecar reports whether the asset was paired with a sidecar file.
func (a Asset) HasSidecar() bool {
	return a.SidecarPath != ""
}
