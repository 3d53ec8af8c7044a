// Package logger provides a small namespaced logging wrapper used across
// every package in this module. It is diagnostic only: nothing in the
// parser, resolver, or evaluator changes behavior based on what gets logged.
package logger

import (
	"fmt"
	"log/slog"
	"os"
)

// Logger writes namespace-prefixed diagnostic lines to stderr. Debug-level
// output is gated behind the DEBUG environment variable so normal library
// use stays silent.
type Logger struct {
	namespace string
	debug     bool
	out       *slog.Logger
}

// New returns a Logger scoped to namespace, e.g. "loader:import" or
// "functions:evaluator".
func New(namespace string) *Logger {
	return &Logger{
		namespace: namespace,
		debug:     os.Getenv("DEBUG") != "",
		out:       slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

// Printf logs an info-level line regardless of DEBUG.
func (l *Logger) Printf(format string, args ...any) {
	l.out.Info(fmt.Sprintf("[%s] %s", l.namespace, fmt.Sprintf(format, args...)))
}

// Debugf logs a debug-level line, emitted only when DEBUG is set.
func (l *Logger) Debugf(format string, args ...any) {
	if !l.debug {
		return
	}
	l.out.Debug(fmt.Sprintf("[%s] %s", l.namespace, fmt.Sprintf(format, args...)))
}

// Errorf logs an error-level line; the caller is still responsible for
// returning the error to its own caller.
func (l *Logger) Errorf(format string, args ...any) {
	l.out.Error(fmt.Sprintf("[%s] %s", l.namespace, fmt.Sprintf(format, args...)))
}

// Namespace returns the logger's namespace, used by adapters that need to
// tag downstream log lines (e.g. the slog bridge, the zap bridge).
func (l *Logger) Namespace() string {
	return l.namespace
}
