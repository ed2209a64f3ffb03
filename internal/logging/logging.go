// Package logging defines the structured-logger contract shared by every
// component, plus the concrete loggers the rest of the module picks from.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Field is a single structured logging attribute.
type Field struct {
	Key   string
	Value any
}

// Logger is the structured-logging interface every component depends on.
// Modeled after the teacher parser package's Logger interface so the rest
// of the module can swap NopLogger/LogrusLogger without caring which.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	With(fields ...Field) Logger
}

// NopLogger discards everything; the safe default for library embedding.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field)        {}
func (NopLogger) Info(string, ...Field)         {}
func (NopLogger) Warn(string, ...Field)         {}
func (NopLogger) Error(string, error, ...Field) {}
func (n NopLogger) With(...Field) Logger        { return n }

// LogrusLogger adapts github.com/sirupsen/logrus to the Logger contract;
// this is the default logger wired into cmd/codegraph and internal/mcpserver.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger builds a LogrusLogger writing to w at the given level.
// A nil w defaults to os.Stderr — library code must never write to
// stdout, since the MCP tool-call transport speaks JSON over stdout.
func NewLogrusLogger(w io.Writer, level logrus.Level) *LogrusLogger {
	if w == nil {
		w = os.Stderr
	}
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(level)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &LogrusLogger{entry: logrus.NewEntry(base)}
}

func toFields(fields []Field) logrus.Fields {
	if len(fields) == 0 {
		return nil
	}
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return lf
}

func (l *LogrusLogger) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toFields(fields)).Warn(msg)
}

func (l *LogrusLogger) Error(msg string, err error, fields ...Field) {
	e := l.entry.WithFields(toFields(fields))
	if err != nil {
		e = e.WithField("error", err.Error())
	}
	e.Error(msg)
}

func (l *LogrusLogger) With(fields ...Field) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(toFields(fields))}
}
