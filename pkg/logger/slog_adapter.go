package logger

import (
	"context"
	"log/slog"
)

// namespaceHandler routes slog records through a Logger so that code
// instrumented with slog shares this module's namespacing and DEBUG
// gating. No package in this module currently installs it.
type namespaceHandler struct {
	l *Logger
}

func (h *namespaceHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level < slog.LevelInfo {
		return h.l.debug
	}
	return true
}

func (h *namespaceHandler) Handle(_ context.Context, r slog.Record) error {
	switch {
	case r.Level >= slog.LevelError:
		h.l.Errorf("%s", r.Message)
	case r.Level >= slog.LevelInfo:
		h.l.Printf("%s", r.Message)
	default:
		h.l.Debugf("%s", r.Message)
	}
	return nil
}

func (h *namespaceHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *namespaceHandler) WithGroup(_ string) slog.Handler      { return h }

// NewSlogLoggerWithHandler returns an *slog.Logger that writes through l,
// for libraries that expect to be configured with a standard slog.Logger.
func NewSlogLoggerWithHandler(l *Logger) *slog.Logger {
	return slog.New(&namespaceHandler{l: l})
}
