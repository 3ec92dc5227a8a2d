// Package sidecar parses the JSON metadata files photo export tools write
// next to each media file.
package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Ext is the sidecar file extension.
const Ext = ".json"

// Timestamp is a nested {"timestamp": "<epoch seconds>"} object. The value
// is kept raw so malformed or numeric values degrade to "absent".
type Timestamp struct {
	Timestamp json.RawMessage `json:"timestamp"`
	Formatted string          `json:"formatted,omitempty"`
}

// Metadata is the subset of the sidecar body the organizer uses.
type Metadata struct {
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	PhotoTakenTime *Timestamp `json:"photoTakenTime,omitempty"`
	CreationTime   *Timestamp `json:"creationTime,omitempty"`
}

// ParseError reports a sidecar whose body is not a JSON object.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse sidecar %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err is a *ParseError.
func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}

// ErrMissingTitle is returned by ReadFile when the sidecar has no title.
var ErrMissingTitle = errors.New("sidecar has no title")

// IsSidecar reports whether path names a sidecar file.
func IsSidecar(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Ext)
}

// Decode reads a sidecar body from r. Unknown fields and fields of an
// unexpected shape are ignored.
func Decode(r io.Reader) (*Metadata, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	m := &Metadata{}
	if v, ok := raw["title"]; ok {
		_ = json.Unmarshal(v, &m.Title)
	}
	if v, ok := raw["description"]; ok {
		_ = json.Unmarshal(v, &m.Description)
	}
	m.PhotoTakenTime = decodeTimestamp(raw["photoTakenTime"])
	m.CreationTime = decodeTimestamp(raw["creationTime"])
	return m, nil
}

func decodeTimestamp(v json.RawMessage) *Timestamp {
	if len(v) == 0 {
		return nil
	}
	var ts Timestamp
	if err := json.Unmarshal(v, &ts); err != nil {
		return nil
	}
	return &ts
}

// ReadFile parses the sidecar at path. It returns a *ParseError for bodies
// that are not JSON objects and ErrMissingTitle when the title is empty.
func ReadFile(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sidecar: %w", err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if strings.TrimSpace(m.Title) == "" {
		return m, fmt.Errorf("%s: %w", path, ErrMissingTitle)
	}
	return m, nil
}

// PhotoTaken returns photoTakenTime.timestamp when present and numeric.
func (m *Metadata) PhotoTaken() (int64, bool) {
	if m == nil {
		return 0, false
	}
	return m.PhotoTakenTime.Epoch()
}

// Created returns creationTime.timestamp when present and numeric.
func (m *Metadata) Created() (int64, bool) {
	if m == nil {
		return 0, false
	}
	return m.CreationTime.Epoch()
}

// Epoch returns the timestamp as epoch seconds. Both the documented string
// form ("1609459200") and a bare JSON number are accepted.
func (t *Timestamp) Epoch() (int64, bool) {
	if t == nil || len(t.Timestamp) == 0 {
		return 0, false
	}
	var s string
	if err := json.Unmarshal(t.Timestamp, &s); err != nil {
		s = string(t.Timestamp)
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
