package jitter

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// logHandler is a minimal slog.Handler that renders one line per record:
// timestamp, level, message, attrs. Ground truth: rcornwell-S370's
// util/logger.LogHandler, trimmed to what the code generator actually
// needs (no separate debug-mirrors-to-stderr knob — callers who want that
// just pass os.Stderr as the writer).
type logHandler struct {
	out io.Writer
	mu  *sync.Mutex
	min slog.Level
}

func newLogHandler(out io.Writer, min slog.Level) *logHandler {
	return &logHandler{out: out, mu: &sync.Mutex{}, min: min}
}

func (h *logHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *logHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *logHandler) WithGroup(_ string) slog.Handler      { return h }

func (h *logHandler) Handle(_ context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("2006/01/02 15:04:05"), r.Level.String() + ":", r.Message}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})
	line := strings.Join(parts, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write([]byte(line))
	return err
}

// NewLogger returns a *slog.Logger writing to out at the given minimum
// level, suitable for Config.Logger, through which Compile reports the
// selected profile and each lowered instruction.
func NewLogger(out io.Writer, min slog.Level) *slog.Logger {
	return slog.New(newLogHandler(out, min))
}

// discardLogger is the default used when a Config doesn't specify one.
func discardLogger() *slog.Logger {
	return slog.New(newLogHandler(io.Discard, slog.LevelError))
}
