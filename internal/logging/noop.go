package logging

import (
	"context"
	"log/slog"
)

// NoopHandler drops every record. It backs NewNop and keeps optional loggers
// nil-safe throughout the codebase.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h NoopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h NoopHandler) WithGroup(string) slog.Handler           { return h }
