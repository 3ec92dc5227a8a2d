// Package matcher locates the media file a sidecar JSON describes.
//
// Export tools do not always name sidecars after their media file, so the
// search runs in tiers and the first hit wins:
//
//  1. the sidecar's own stem with every media extension (lower, then upper case)
//  2. the stem of the sidecar's declared title with every media extension
//  3. any media file in the same directory whose name contains the title stem
//
// Tier 3 candidates are sorted by name and the first one is used. When more
// than one candidate exists a warning lists all of them.
package matcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"media-organizer/internal/logging"
	"media-organizer/internal/media"
	"media-organizer/internal/sidecar"
)

// MediaNotFoundError reports a sidecar without a matching media file.
type MediaNotFoundError struct {
	SidecarPath string
	Title       string
}

func (e *MediaNotFoundError) Error() string {
	return fmt.Sprintf("no media file found for %s (title: %q)", e.SidecarPath, e.Title)
}

// IsMediaNotFound reports whether err is a *MediaNotFoundError.
func IsMediaNotFound(err error) bool {
	var e *MediaNotFoundError
	return errors.As(err, &e)
}

// Tier identifies which search step produced a match.
type Tier int

const (
	TierSidecarStem Tier = iota + 1
	TierTitleStem
	TierFuzzy
)

func (t Tier) String() string {
	switch t {
	case TierSidecarStem:
		return "sidecar-stem"
	case TierTitleStem:
		return "title-stem"
	case TierFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Match is a resolved media file.
type Match struct {
	Path string
	Tier Tier
}

// Matcher pairs sidecars with media files.
type Matcher struct {
	Types  media.Types
	Logger *slog.Logger
}

// New creates a Matcher for the given extension sets.
func New(types media.Types, logger *slog.Logger) *Matcher {
	return &Matcher{Types: types, Logger: logging.OrDiscard(logger)}
}

// Find returns the media file described by the sidecar at sidecarPath with
// the given declared title.
func (m *Matcher) Find(sidecarPath, title string) (Match, error) {
	dir := filepath.Dir(sidecarPath)

	for _, stem := range sidecarStems(sidecarPath, m.Types) {
		if p, ok := m.withExtensions(dir, stem); ok {
			return Match{Path: p, Tier: TierSidecarStem}, nil
		}
	}

	if titleStem := stemOfTitle(title); titleStem != "" {
		if p, ok := m.withExtensions(dir, titleStem); ok {
			return Match{Path: p, Tier: TierTitleStem}, nil
		}
		if p, ok := m.fuzzy(dir, titleStem, sidecarPath); ok {
			return Match{Path: p, Tier: TierFuzzy}, nil
		}
	}

	return Match{}, &MediaNotFoundError{SidecarPath: sidecarPath, Title: title}
}

// Path is Find without the tier.
func (m *Matcher) Path(sidecarPath, title string) (string, error) {
	match, err := m.Find(sidecarPath, title)
	return match.Path, err
}

// sidecarStems returns the sidecar name without ".json" and, for names like
// "IMG_1.jpg.json", also without the embedded media extension.
func sidecarStems(sidecarPath string, types media.Types) []string {
	stem := trimExt(filepath.Base(sidecarPath))
	stems := []string{stem}
	if inner := filepath.Ext(stem); inner != "" && types.IsMediaExt(inner) {
		stems = append(stems, strings.TrimSuffix(stem, inner))
	}
	return stems
}

// withExtensions looks for dir/stem+ext for every media extension, trying
// the lower case form before the upper case form.
func (m *Matcher) withExtensions(dir, stem string) (string, bool) {
	for _, ext := range m.Types.Extensions() {
		for _, candidate := range []string{ext, strings.ToUpper(ext)} {
			p := filepath.Join(dir, stem+candidate)
			if isRegularFile(p) {
				return p, true
			}
		}
	}
	return "", false
}

func (m *Matcher) fuzzy(dir, stem, sidecarPath string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		m.Logger.Warn("cannot list directory", "dir", dir, "error", err)
		return "", false
	}

	var candidates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || sidecar.IsSidecar(name) {
			continue
		}
		if !m.Types.IsMediaExt(filepath.Ext(name)) {
			continue
		}
		if strings.Contains(trimExt(name), stem) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}

	sort.Strings(candidates)
	if len(candidates) > 1 {
		m.Logger.Warn("ambiguous media match, using first by name",
			"sidecar", sidecarPath, "chosen", candidates[0], "candidates", strings.Join(candidates, ", "))
	}
	return filepath.Join(dir, candidates[0]), true
}

// stemOfTitle returns the declared title's file name without extension.
// Directory parts are dropped so lookups stay next to the sidecar.
func stemOfTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	base := filepath.Base(title)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return trimExt(base)
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
