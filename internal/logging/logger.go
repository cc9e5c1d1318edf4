// Package logging is the structured logging facade of sci-ledger. Components
// take a Logger; the container decides which backend sits behind it.
package logging

// Logger is implemented by the logrus adapter and by MockLogger.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithError, WithField and WithFields return a derived logger; the
	// receiver is left untouched.
	WithError(err error) Logger
	WithField(key string, value interface{}) Logger
	WithFields(fields ...Field) Logger
}

// Field is one structured key/value attached to an entry. Keys should come
// from the Field* constants so that entries stay greppable across components.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
