package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// shelfHandler is a slog.Handler that writes one tab-separated line per record:
//
//	<timestamp>\t<level>\t<opID>\t<message>\t<key=value ...>
//
// Grouped attributes are written as group.key=value. Records at or above
// level go to w; when echo is set, records at or above echoLevel are copied there.
type shelfHandler struct {
	w         io.Writer
	level     slog.Level
	echo      io.Writer
	echoLevel slog.Level
	opID      string
	prefix    string
	attrs     []slog.Attr
}

func (h *shelfHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level || (h.echo != nil && level >= h.echoLevel)
}

func (h *shelfHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\t%s\t%s\t%s",
		r.Time.UTC().Format("2006-01-02T15:04:05Z"), r.Level.String(), h.opID, r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	// One write per record so concurrent lines never interleave.
	line := b.String()
	if r.Level >= h.level {
		if _, err := io.WriteString(h.w, line); err != nil {
			return err
		}
	}
	if h.echo != nil && r.Level >= h.echoLevel {
		if _, err := io.WriteString(h.echo, line); err != nil {
			return err
		}
	}
	return nil
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix, ga)
		}
		return
	}
	fmt.Fprintf(b, "\t%s%s=%v", prefix, a.Key, a.Value.Resolve())
}

func (h *shelfHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefixed := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		prefixed = append(prefixed, a)
	}
	h2 := *h
	h2.attrs = append(append([]slog.Attr{}, h.attrs...), prefixed...)
	return &h2
}

func (h *shelfHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// newLogger creates a structured logger that appends to logDir/shelf.log and
// copies lines to opts.Echo when it is set. The TUI leaves Echo nil so log
// output never lands on the screen.
// It returns the slog.Logger, the open log file (for cleanup), and any error.
func newLogger(logDir, opID string, opts Options) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "shelf.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := &shelfHandler{
		w:         f,
		level:     opts.Level,
		echo:      opts.Echo,
		echoLevel: opts.EchoLevel,
		opID:      opID,
	}
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the shelf.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
