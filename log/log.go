package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

type Level uint8

const (
	ErrorLevel Level = iota
	WarnLevel
	DebugLevel
)

var logger = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	return &logrus.Logger{
		Out:       out,
		Formatter: prefixFormatter{},
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.WarnLevel,
		ExitFunc:  os.Exit,
	}
}

// prefixFormatter prints the message with a coloured level prefix, followed
// by any fields as key=value pairs.
type prefixFormatter struct{}

func (prefixFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	buf := new(bytes.Buffer)
	switch entry.Level {
	case logrus.WarnLevel:
		buf.WriteString(color.YellowString("WARN "))
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		buf.WriteString(color.RedString("ERROR "))
	}
	buf.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(buf, " %s=%v", key, entry.Data[key])
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// SetLevel for the global logger.
func SetLevel(l Level) {
	switch l {
	case ErrorLevel:
		logger.SetLevel(logrus.ErrorLevel)
	case WarnLevel:
		logger.SetLevel(logrus.WarnLevel)
	default:
		logger.SetLevel(logrus.DebugLevel)
	}
}

// SetOutput of the global logger.
func SetOutput(out io.Writer) {
	logger.SetOutput(out)
}

// Output returns the writer of the global logger.
func Output() io.Writer {
	return logger.Out
}

// WithField returns an entry that prints key=value after the message.
func WithField(key string, value interface{}) *logrus.Entry {
	return logger.WithField(key, value)
}

// Warnf prints the message to stderr, with a yellow WARN prefix.
func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Debugf prints the message to stderr, with no prefix.
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Errorf prints the message to stderr, with a red ERROR prefix.
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Error prints the message to stderr, with a red ERROR prefix.
func Error(msg string) {
	logger.Error(msg)
}
