// Package logging configures slog for the whole application: a text handler
// on stderr plus a JSON handler on a weekly rotating file, behind one
// fan-out handler. Package-level helpers fall back to a plain stderr logger
// when Init was never called, so library code can log unconditionally.
package logging

import (
	"context"
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

// ParseLevel maps a configuration string to a slog level. Unknown values
// mean info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds the application logger. Console output goes to stderr so it
// never interleaves with command output on stdout; the file copy is JSON
// under logDir with weekly rotation and retention. If the log directory
// cannot be created the console logger alone is returned.
func Setup(logDir string, level slog.Level, retentionWeeks int, maxFileSize int64) (*slog.Logger, *RotatingWriter) {
	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if err := os.MkdirAll(logDir, 0755); err != nil {
		logger := slog.New(console)
		logger.Error("Failed to create log directory", "dir", logDir, "error", err)
		return logger, nil
	}

	writer := NewRotatingWriter(logDir, retentionWeeks, maxFileSize)
	writer.startCleanup()

	file := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level})
	return slog.New(&multiHandler{handlers: []slog.Handler{console, file}}), writer
}

// Init installs the logger built by Setup as both the package default and
// the slog default. It returns the rotating writer for the caller to Close
// on shutdown; the writer is nil when file logging is unavailable.
func Init(logDir string, level slog.Level, retentionWeeks int, maxFileSize int64) *RotatingWriter {
	logger, writer := Setup(logDir, level, retentionWeeks, maxFileSize)
	defaultLogger = logger
	slog.SetDefault(logger)
	return writer
}

func active() *slog.Logger {
	if defaultLogger != nil {
		return defaultLogger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func Debug(msg string, args ...any) { active().Debug(msg, args...) }
func Info(msg string, args ...any)  { active().Info(msg, args...) }
func Warn(msg string, args ...any)  { active().Warn(msg, args...) }
func Error(msg string, args ...any) { active().Error(msg, args...) }

// multiHandler fans records out to every handler that enables the level.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
