package logger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

var base atomic.Pointer[slog.Logger]

func init() {
	base.Store(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// SetDefault replaces the handler every logger created afterwards writes to.
// Existing loggers switch over on their next Function call.
func SetDefault(l *slog.Logger) {
	base.Store(l)
	slog.SetDefault(l)
}

type Logger struct {
	name     string
	file     string
	function string
	log      *slog.Logger
}

func New(name string) Logger {
	return Logger{name: name, log: base.Load().With("package", name)}
}

func (l Logger) File(file string) Logger {
	l.file = file
	l.log = l.log.With("file", file)
	return l
}

func (l Logger) Function(function string) Logger {
	l.function = function
	l.log = base.Load().With("package", l.name)
	if l.file != "" {
		l.log = l.log.With("file", l.file)
	}
	l.log = l.log.With("function", function)
	return l
}

func (l Logger) With(args ...any) Logger {
	l.log = l.log.With(args...)
	return l
}

func (l Logger) Debug(msg string, args ...any) {
	l.log.Debug(msg, args...)
}

func (l Logger) Info(msg string, args ...any) {
	l.log.Info(msg, args...)
}

func (l Logger) Warn(msg string, args ...any) {
	l.log.Warn(msg, args...)
}

// Er logs err without returning it.
func (l Logger) Er(msg string, err error, args ...any) {
	l.log.Error(msg, append(args, "error", err)...)
}

func (l Logger) ErMsg(msg string, args ...any) {
	l.log.Error(msg, args...)
}

// Err logs err and returns it wrapped with msg.
func (l Logger) Err(msg string, err error, args ...any) error {
	l.Er(msg, err, args...)
	return fmt.Errorf("%s: %w", msg, err)
}

// Error logs msg and returns it as a new error.
func (l Logger) Error(msg string, args ...any) error {
	l.log.Error(msg, args...)
	return errors.New(msg)
}

func (l Logger) ErrMsg(msg string) error {
	l.log.Error(msg)
	return errors.New(msg)
}

func (l Logger) Slog() *slog.Logger {
	return l.log
}
