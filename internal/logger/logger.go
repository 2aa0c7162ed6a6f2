// Package logger provides the Logger interface every component takes
// as a constructor argument (design note: "process-wide module state
// (logger) → injected collaborator" — no package-level sink). The
// interface is shaped like the teacher's own logger.Logger
// (cmdupload/upload.go threads `log logger.Logger` through every call)
// but is backed by log/slog fanned out to a colored console handler
// and a plain file handler.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	cslog "github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	"github.com/ttacon/chalk"
)

// Level mirrors the severity tags the teacher's logger.Logger uses for
// its in-place Message{Continue,Terminate}/Progress calls.
type Level int

const (
	Debug Level = iota
	Info
	OK
	Warning
	Error
)

// Logger is the narrow capability every sync-engine component
// receives at construction.
type Logger interface {
	OK(format string, args ...any)
	Info(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
	Debug(format string, args ...any)
	DebugObject(msg string, obj any)

	// MessageContinue/MessageTerminate render an in-place status line,
	// the way the teacher prints "Uploading %q... Done" incrementally.
	MessageContinue(level Level, format string, args ...any)
	MessageTerminate(level Level, format string, args ...any)
}

type logger struct {
	slog   *slog.Logger
	status io.Writer
	color  bool
}

// Options configures New.
type Options struct {
	// FilePath, if non-empty, fans structured JSON log lines out to
	// this file in addition to the console.
	FilePath string
	// Verbose enables debug-level console output.
	Verbose bool
	// Color enables chalk coloring of the in-place status line; it
	// should be disabled when stdout is not a terminal.
	Color bool
}

// New builds a Logger fanning out to a colored console handler
// (console-slog) and, if Options.FilePath is set, a plain JSON file
// handler, combined with slog-multi — the pairing the teacher's go.mod
// carries (phsym/console-slog, samber/slog-multi) for exactly this
// purpose.
func New(opts Options) (Logger, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		cslog.NewHandler(os.Stdout, &cslog.HandlerOptions{Level: level}),
	}

	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logger: open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	}

	h := slogmulti.Fanout(handlers...)

	return &logger{
		slog:   slog.New(h),
		status: os.Stdout,
		color:  opts.Color,
	}, nil
}

func (l *logger) OK(format string, args ...any)      { l.slog.Info(fmt.Sprintf(format, args...)) }
func (l *logger) Info(format string, args ...any)    { l.slog.Info(fmt.Sprintf(format, args...)) }
func (l *logger) Warning(format string, args ...any) { l.slog.Warn(fmt.Sprintf(format, args...)) }
func (l *logger) Error(format string, args ...any)   { l.slog.Error(fmt.Sprintf(format, args...)) }
func (l *logger) Debug(format string, args ...any)   { l.slog.Debug(fmt.Sprintf(format, args...)) }

func (l *logger) DebugObject(msg string, obj any) {
	l.slog.Debug(msg, slog.Any("value", obj))
}

func (l *logger) MessageContinue(level Level, format string, args ...any) {
	fmt.Fprint(l.status, l.colorize(level, fmt.Sprintf(format, args...)))
}

func (l *logger) MessageTerminate(level Level, format string, args ...any) {
	fmt.Fprintln(l.status, l.colorize(level, fmt.Sprintf(format, args...)))
}

func (l *logger) colorize(level Level, s string) string {
	if !l.color {
		return s
	}
	switch level {
	case OK:
		return chalk.Green.Color(s)
	case Warning:
		return chalk.Yellow.Color(s)
	case Error:
		return chalk.Red.Color(s)
	default:
		return s
	}
}
