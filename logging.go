package asyncrt

import (
	"log/slog"

	"github.com/joeycumines/logiface"
	islog "github.com/joeycumines/logiface-slog"
)

// Logger is the restrained logging surface the runtime calls into. Every
// runtime call site logs at Warn: a failed reactor park in the io driver, a
// failed reactor close in Stop, and a failed metrics instrument
// registration in Build. Recovered task panics are not logged (they become
// the task's join outcome), and neither are shutdown steps. It is never
// called on the poll/enqueue/steal hot path, the
// same restraint the teacher's own Logger abstraction (eventloop/logging.go)
// applies to its callback-dispatch loop.
type Logger interface {
	Debug(msg string, err error, fields map[string]any)
	Warn(msg string, err error, fields map[string]any)
	Error(msg string, err error, fields map[string]any)
}

// NoOpLogger returns a Logger that discards everything. It is the default
// when no WithLogger option is supplied to the Builder.
func NoOpLogger() Logger { return noopLogger{} }

type noopLogger struct{}

func (noopLogger) Debug(string, error, map[string]any) {}
func (noopLogger) Warn(string, error, map[string]any)  {}
func (noopLogger) Error(string, error, map[string]any) {}

// NewSlogLogger adapts a log/slog.Handler into a Logger, using
// logiface-slog as the bridge between logiface's fluent builder and the
// handler. This is the wiring the teacher's own logging surface was built
// to accept a structured backend for, concretized here with the sibling
// package from the same module.
func NewSlogLogger(handler slog.Handler) Logger {
	return &slogLogger{l: islog.L.New(islog.L.WithSlogHandler(handler))}
}

type slogLogger struct {
	l *logiface.Logger[*islog.Event]
}

func (s *slogLogger) Debug(msg string, err error, fields map[string]any) {
	s.emit(s.l.Debug(), msg, err, fields)
}

func (s *slogLogger) Warn(msg string, err error, fields map[string]any) {
	s.emit(s.l.Warning(), msg, err, fields)
}

func (s *slogLogger) Error(msg string, err error, fields map[string]any) {
	s.emit(s.l.Err(), msg, err, fields)
}

func (s *slogLogger) emit(b *logiface.Builder[*islog.Event], msg string, err error, fields map[string]any) {
	if err != nil {
		b = b.Err(err)
	}
	for k, v := range fields {
		b = b.Any(k, v)
	}
	b.Log(msg)
}

// runtimeLogger is the internal wrapper every call site in the runtime goes
// through, so that a nil Logger (never constructed directly by resolveConfig,
// which always substitutes NoOpLogger) can never reach a call site.
type runtimeLogger struct {
	l Logger
}

func newRuntimeLogger(l Logger) *runtimeLogger {
	if l == nil {
		l = NoOpLogger()
	}
	return &runtimeLogger{l: l}
}

func (r *runtimeLogger) debug(msg string, fields map[string]any) {
	r.l.Debug(msg, nil, fields)
}

func (r *runtimeLogger) warn(msg string, err error, fields map[string]any) {
	r.l.Warn(msg, err, fields)
}

func (r *runtimeLogger) error(msg string, err error, fields map[string]any) {
	r.l.Error(msg, err, fields)
}
