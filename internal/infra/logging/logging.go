// Package logging builds the process *slog.Logger: a console handler
// (colourised tint output on a terminal, JSON on request) plus an optional
// append-only log file.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	sfmt "github.com/samber/slog-formatter"
)

const consoleTimeFormat = "Jan 02 15:04:05.000"

// Options configures New.
type Options struct {
	Level slog.Level
	// JSON switches both console and file output to JSON lines.
	JSON bool
	// File, when set, receives a copy of every record.
	File string
	// Console defaults to os.Stderr; stdout is reserved for command output.
	Console io.Writer
	// NoConsole disables the console handler.
	NoConsole bool
}

// New returns the logger and a close function for the log file.
func New(opts Options) (*slog.Logger, func() error, error) {
	hopts := &slog.HandlerOptions{Level: opts.Level}
	closer := func() error { return nil }

	var handlers []slog.Handler
	if !opts.NoConsole {
		out := opts.Console
		if out == nil {
			out = os.Stderr
		}
		if opts.JSON {
			handlers = append(handlers, slog.NewJSONHandler(out, hopts))
		} else {
			handlers = append(handlers, console(out, opts.Level))
		}
	}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		closer = f.Close
		if opts.JSON {
			handlers = append(handlers, slog.NewJSONHandler(f, hopts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(f, hopts))
		}
	}

	var h slog.Handler
	switch len(handlers) {
	case 0:
		h = slog.DiscardHandler
	case 1:
		h = handlers[0]
	default:
		h = MultiHandler(handlers...)
	}
	return slog.New(h), closer, nil
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(input string) (level slog.Level) {
	if err := level.UnmarshalText([]byte(input)); err != nil {
		level = slog.LevelInfo
	}
	return level
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func console(out io.Writer, level slog.Level) slog.Handler {
	return sfmt.NewFormatterHandler(
		sfmt.ErrorFormatter("error"),
	)(
		tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: consoleTimeFormat,
			NoColor:    !IsTerminal(out),
		}),
	)
}

type multiHandler struct {
	handlers []slog.Handler
}

// MultiHandler fans every record out to each handler that accepts its level.
func MultiHandler(handlers ...slog.Handler) slog.Handler {
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, r.Level) {
			if err := hh.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		next[i] = hh.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
