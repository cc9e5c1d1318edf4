package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options selects how a logrus-backed Logger renders entries.
type Options struct {
	// Level is a logrus level name; unknown names fall back to info.
	Level string
	// Format is "json" or "text".
	Format string
	// Output defaults to stderr.
	Output io.Writer
}

// LogrusAdapter is the production Logger.
type LogrusAdapter struct {
	entry *logrus.Entry
}

// New builds a logrus-backed Logger from opts.
func New(opts Options) Logger {
	base := logrus.New()
	if opts.Output != nil {
		base.SetOutput(opts.Output)
	}

	level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
		defer base.WithField("requested", opts.Level).Warn("Unknown log level, using info")
	}
	base.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return Wrap(base)
}

// NewLogrusAdapter is New writing to stderr.
func NewLogrusAdapter(level, format string) Logger {
	return New(Options{Level: level, Format: format})
}

// Wrap adapts an already configured logrus logger, e.g. the one produced by
// config.ConfigureLoggingFromConfig. A nil logger gets logrus defaults.
func Wrap(base *logrus.Logger) Logger {
	if base == nil {
		base = logrus.New()
	}
	return &LogrusAdapter{entry: logrus.NewEntry(base)}
}

func (l *LogrusAdapter) log(level logrus.Level, msg string, fields []Field) {
	e := l.entry
	if len(fields) > 0 {
		e = e.WithFields(toLogrus(fields))
	}
	e.Log(level, msg)
}

func (l *LogrusAdapter) Debug(msg string, fields ...Field) { l.log(logrus.DebugLevel, msg, fields) }
func (l *LogrusAdapter) Info(msg string, fields ...Field)  { l.log(logrus.InfoLevel, msg, fields) }
func (l *LogrusAdapter) Warn(msg string, fields ...Field)  { l.log(logrus.WarnLevel, msg, fields) }
func (l *LogrusAdapter) Error(msg string, fields ...Field) { l.log(logrus.ErrorLevel, msg, fields) }

func (l *LogrusAdapter) WithError(err error) Logger {
	return &LogrusAdapter{entry: l.entry.WithError(err)}
}

func (l *LogrusAdapter) WithField(key string, value interface{}) Logger {
	return &LogrusAdapter{entry: l.entry.WithField(key, value)}
}

func (l *LogrusAdapter) WithFields(fields ...Field) Logger {
	return &LogrusAdapter{entry: l.entry.WithFields(toLogrus(fields))}
}

func toLogrus(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
