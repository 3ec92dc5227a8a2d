// Package manifest keeps a CSV record of every file the organizer has placed
// in the target tree.
package manifest

import (
	"crypto/md5"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// Dir is the manifest directory inside the target root.
	Dir = "_Manifest"
	// FileName is the manifest file inside Dir.
	FileName = "media_manifest.csv"

	hashPrefixSize = 64 * 1024
	timeLayout     = "2006-01-02 15:04:05"
)

var header = []string{
	"filename",
	"relative_path",
	"source_path",
	"sidecar_path",
	"file_size_bytes",
	"file_size_mb",
	"taken_at",
	"timestamp_source",
	"file_hash",
	"extension",
	"organized_date",
}

// Entry describes one organized media file.
type Entry struct {
	Dest        string // absolute destination path
	Source      string // original path
	Sidecar     string // destination of the paired sidecar, if any
	Size        int64
	TakenAt     time.Time
	TimeSource  string
	Hash        string
	OrganizedAt time.Time
}

// Manifest accumulates entries and merges them into the CSV on Save.
// Existing rows are kept; rows are keyed and sorted by relative path.
type Manifest struct {
	root    string
	path    string
	pending []Entry
}

// Path returns the manifest location for target root.
func Path(root string) string {
	return filepath.Join(root, Dir, FileName)
}

// New creates a Manifest for the target root.
func New(root string) *Manifest {
	return &Manifest{root: root, path: Path(root)}
}

// File returns the CSV path.
func (m *Manifest) File() string { return m.path }

// Len returns the number of entries waiting to be saved.
func (m *Manifest) Len() int { return len(m.pending) }

// Add queues e for the next Save.
func (m *Manifest) Add(e Entry) {
	m.pending = append(m.pending, e)
}

// Save merges the pending entries into the CSV and returns how many rows were
// new. Rows whose relative path is already present are left as they are.
func (m *Manifest) Save() (int, error) {
	if len(m.pending) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return 0, fmt.Errorf("create manifest dir: %w", err)
	}

	existing, err := m.load()
	if err != nil {
		return 0, err
	}

	added := 0
	for _, e := range m.pending {
		row := m.row(e)
		if _, ok := existing[row[1]]; ok {
			continue
		}
		existing[row[1]] = row
		added++
	}

	keys := make([]string, 0, len(existing))
	for k := range existing {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}
	w := csv.NewWriter(f)
	_ = w.Write(header)
	for _, k := range keys {
		_ = w.Write(existing[k])
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return 0, fmt.Errorf("write manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return 0, fmt.Errorf("write manifest: %w", err)
	}

	m.pending = nil
	return added, nil
}

func (m *Manifest) load() (map[string][]string, error) {
	rows := make(map[string][]string)
	f, err := os.Open(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return rows, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", m.path, err)
	}
	for i, rec := range records {
		if i == 0 || len(rec) < 2 {
			continue
		}
		rows[rec[1]] = rec
	}
	return rows, nil
}

func (m *Manifest) row(e Entry) []string {
	rel, err := filepath.Rel(m.root, e.Dest)
	if err != nil {
		rel = e.Dest
	}
	var sidecarRel string
	if e.Sidecar != "" {
		if sidecarRel, err = filepath.Rel(m.root, e.Sidecar); err != nil {
			sidecarRel = e.Sidecar
		}
	}
	organized := e.OrganizedAt
	if organized.IsZero() {
		organized = time.Now()
	}
	return []string{
		filepath.Base(e.Dest),
		filepath.ToSlash(rel),
		e.Source,
		filepath.ToSlash(sidecarRel),
		strconv.FormatInt(e.Size, 10),
		fmt.Sprintf("%.2f", float64(e.Size)/(1024*1024)),
		e.TakenAt.Format(timeLayout),
		e.TimeSource,
		e.Hash,
		strings.ToLower(filepath.Ext(e.Dest)),
		organized.Format(timeLayout),
	}
}

// FileHash returns the hex MD5 of the first 64KB of path, or "" when the
// file cannot be read.
func FileHash(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.CopyN(h, f, hashPrefixSize); err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
