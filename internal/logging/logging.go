// Package logging builds the structured logger used by the organizer.
//
// Records are written one per line as:
//
//	<timestamp>\t<level>\t<run id>\t<message>\t<key=value ...>
//
// Level names are colored when the output is a terminal.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
)

// Options configures a Handler.
type Options struct {
	// Level is the minimum level written. Defaults to Info.
	Level slog.Leveler
	// RunID tags every line. NewRunID generates one when empty.
	RunID string
	// Color forces colored level names on or off. Nil means auto-detect.
	Color *bool
}

// Handler is a slog.Handler producing tab-separated lines.
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	runID  string
	colors map[slog.Level]*color.Color
	attrs  []slog.Attr
	group  string
}

// NewHandler creates a Handler writing to w.
func NewHandler(w io.Writer, opts Options) *Handler {
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	runID := opts.RunID
	if runID == "" {
		runID = NewRunID()
	}
	useColor := isTerminal(w)
	if opts.Color != nil {
		useColor = *opts.Color
	}

	return &Handler{
		mu:     &sync.Mutex{},
		w:      w,
		level:  level,
		runID:  runID,
		colors: levelColors(useColor),
	}
}

// New returns a logger writing to stderr.
func New(level slog.Leveler, runID string) *slog.Logger {
	return slog.New(NewHandler(os.Stderr, Options{Level: level, RunID: runID}))
}

// Discard returns a logger that drops everything. Use in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 100}))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// NewRunID returns a short random identifier for one organizer run.
func NewRunID() string {
	return uuid.New().String()[:8]
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time.Format("2006-01-02T15:04:05")
	level := r.Level.String()
	if c, ok := h.colors[r.Level]; ok {
		level = c.Sprint(level)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := fmt.Fprintf(h.w, "%s\t%s\t%s\t%s", ts, level, h.runID, r.Message); err != nil {
		return err
	}
	for _, a := range h.attrs {
		fmt.Fprintf(h.w, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		fmt.Fprintf(h.w, "\t%s=%v", key, a.Value)
		return true
	})
	_, err := fmt.Fprintln(h.w)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *Handler) WithGroup(name string) slog.Handler {
	next := *h
	if h.group != "" {
		name = h.group + "." + name
	}
	next.group = name
	return &next
}

func levelColors(enabled bool) map[slog.Level]*color.Color {
	m := map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgHiBlack),
		slog.LevelInfo:  color.New(color.FgCyan),
		slog.LevelWarn:  color.New(color.FgYellow),
		slog.LevelError: color.New(color.FgRed, color.Bold),
	}
	for _, c := range m {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return m
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
