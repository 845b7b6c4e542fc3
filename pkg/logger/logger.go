// Package logger provides the leveled logging every transport package
// calls into: Debugf/Infof/Warnf/Errorf against a package-level
// default, plus a WithFields escape hatch for the structured
// key/value pairs the dispatch and retransmit hot paths attach
// (connection id, packet id, method, attempt count).
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var std = newDefault()

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetLevel sets the minimum level the default logger emits at. Valid
// names: "debug", "info", "warn", "error".
func SetLevel(name string) {
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std.SetLevel(lvl)
}

// SetOutput redirects the default logger's output, mainly for tests
// that want to assert on emitted lines or silence them entirely.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Fields is a structured key/value attachment for a log line.
type Fields = logrus.Fields

// WithFields returns an entry carrying structured fields; chain
// Debugf/Infof/Warnf/Errorf off of it.
func WithFields(fields Fields) *logrus.Entry {
	return std.WithFields(fields)
}

func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }
func Infof(format string, args ...interface{})  { std.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { std.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }
