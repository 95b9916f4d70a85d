//go:build go1.21

// Package slog adapts log/slog to scorecache.Logger.
package slog

import (
	"context"
	"fmt"
	"io"
	stdslog "log/slog"

	"github.com/ktevet1983-hub/scorecache"
)

var _ scorecache.Logger = Logger{}

type Logger struct{ L *stdslog.Logger }

// New builds a logger writing to w. format is "json" or "text".
func New(w io.Writer, level, format string) (Logger, error) {
	var lvl stdslog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return Logger{}, fmt.Errorf("slog: %w", err)
	}
	opts := &stdslog.HandlerOptions{Level: lvl}
	var h stdslog.Handler
	if format == "json" {
		h = stdslog.NewJSONHandler(w, opts)
	} else {
		h = stdslog.NewTextHandler(w, opts)
	}
	return Logger{L: stdslog.New(h).With("component", "scorecache")}, nil
}

func (s Logger) Debug(msg string, f scorecache.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f scorecache.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f scorecache.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f scorecache.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(lvl stdslog.Level, msg string, f scorecache.Fields) {
	ctx := context.Background()
	if !s.L.Enabled(ctx, lvl) {
		return
	}
	s.L.LogAttrs(ctx, lvl, msg, attrs(f)...)
}

func attrs(f scorecache.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, stdslog.Any(k, v))
	}
	return out
}
