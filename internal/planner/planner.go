// Package planner maps a resolved timestamp and filename to the relative
// destination path YYYY/YYYY-MM-DD/<name>.
package planner

import (
	"path/filepath"
	"strings"
	"time"
)

// Planner computes destination paths. The zero value uses local time.
type Planner struct {
	// Location decides which calendar day a timestamp falls on.
	Location *time.Location
}

// New creates a Planner for loc. A nil loc means time.Local.
func New(loc *time.Location) Planner {
	return Planner{Location: loc}
}

// Plan returns the destination of filename relative to the target root.
// The base name is kept; the extension is lower-cased.
func (p Planner) Plan(epoch int64, filename string) string {
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	date := time.Unix(epoch, 0).In(loc)
	year := date.Format("2006")
	dateFolder := date.Format("2006-01-02")

	return filepath.Join(year, dateFolder, normalizeName(filepath.Base(filename)))
}

// Dir returns the destination directory for epoch, relative to the target root.
func (p Planner) Dir(epoch int64) string {
	return filepath.Dir(p.Plan(epoch, "x"))
}

func normalizeName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + strings.ToLower(ext)
}
