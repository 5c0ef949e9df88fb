package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// Entry is one captured log record with its attributes flattened. Group
// members are keyed "group.key".
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// Recorder is a slog.Handler that keeps every record in memory. Loggers
// derived with With or WithGroup share the recorder's entries.
type Recorder struct {
	state  *recorderState
	attrs  []slog.Attr
	prefix string
}

type recorderState struct {
	mu      sync.Mutex
	entries []Entry
}

var _ slog.Handler = (*Recorder)(nil)

// NewTestLogger returns a debug-level logger backed by a fresh Recorder.
// The default logger is left untouched so tests can run in parallel.
func NewTestLogger(t *testing.T) (*slog.Logger, *Recorder) {
	t.Helper()

	rec := &Recorder{state: &recorderState{}}
	return slog.New(rec), rec
}

// Enabled implements slog.Handler; every level is recorded.
func (r *Recorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *Recorder) Handle(_ context.Context, record slog.Record) error {
	attrs := make(map[string]any, len(r.attrs)+record.NumAttrs())
	for _, a := range r.attrs {
		flatten(attrs, "", a)
	}
	record.Attrs(func(a slog.Attr) bool {
		flatten(attrs, r.prefix, a)
		return true
	})

	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.entries = append(r.state.entries, Entry{
		Level:   record.Level,
		Message: record.Message,
		Attrs:   attrs,
	})
	return nil
}

// WithAttrs implements slog.Handler.
func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *r
	next.attrs = append([]slog.Attr(nil), r.attrs...)
	for _, a := range attrs {
		if r.prefix != "" {
			a.Key = r.prefix + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

// WithGroup implements slog.Handler.
func (r *Recorder) WithGroup(name string) slog.Handler {
	if name == "" {
		return r
	}
	next := *r
	next.prefix = r.prefix + name + "."
	return &next
}

func flatten(dst map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range v.Group() {
			flatten(dst, p, ga)
		}
		return
	}
	dst[prefix+a.Key] = v.Any()
}

// Entries returns a copy of the captured entries in logging order.
func (r *Recorder) Entries() []Entry {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	return append([]Entry(nil), r.state.entries...)
}

// Find returns the first entry logged with message.
func (r *Recorder) Find(message string) (Entry, bool) {
	for _, e := range r.Entries() {
		if e.Message == message {
			return e, true
		}
	}
	return Entry{}, false
}

// Count reports how many entries were logged at level or above.
func (r *Recorder) Count(level slog.Level) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level >= level {
			n++
		}
	}
	return n
}

// Reset drops every captured entry.
func (r *Recorder) Reset() {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	r.state.entries = nil
}

// String renders the entries one per line, for substring assertions.
func (r *Recorder) String() string {
	var b strings.Builder
	for _, e := range r.Entries() {
		fmt.Fprintf(&b, "%s %s", e.Level, e.Message)
		for k, v := range e.Attrs {
			fmt.Fprintf(&b, " %s=%v", k, v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
