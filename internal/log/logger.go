// Package log is the structured, leveled logger used across ocrdrop.
// It wraps logrus behind a small API: package-level helpers for the
// common case, Logger values for components that need their own output,
// and F fields for structured context.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	apperrors "ocrdrop/internal/errors"

	"github.com/sirupsen/logrus"
)

var (
	isDebug atomic.Bool
	logger  = NewLogger()
)

// Field is a single key/value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger writes leveled log lines through logrus.
type Logger struct {
	base  *logrus.Logger
	level logrus.Level
	out   io.Writer
	file  *os.File
	json  bool
}

// Option configures a Logger.
type Option func(*Logger)

// WithOutput sends log lines to w.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.out = w
	}
}

// WithFile appends log lines to the file at path instead of the configured
// output. Interactive front-ends use it to keep the terminal clean.
func WithFile(path string) Option {
	return func(l *Logger) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log: cannot open %s: %v\n", path, err)
			return
		}
		l.file = f
	}
}

// WithJSON switches to one JSON object per line.
func WithJSON() Option {
	return func(l *Logger) {
		l.json = true
	}
}

// WithLevel sets the minimum level by name (debug, info, warn, error).
// Unknown names leave the level unchanged.
func WithLevel(name string) Option {
	return func(l *Logger) {
		if lvl, err := logrus.ParseLevel(name); err == nil {
			l.level = lvl
		}
	}
}

// NewLogger creates a logger writing text lines to stderr at info level.
func NewLogger(opts ...Option) *Logger {
	l := &Logger{
		base:  logrus.New(),
		level: logrus.InfoLevel,
		out:   os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}

	// Filtering happens in enabled so SetDebug can flip debug output at runtime.
	l.base.SetLevel(logrus.TraceLevel)
	if l.file != nil {
		l.base.SetOutput(l.file)
	} else {
		l.base.SetOutput(l.out)
	}
	if l.json {
		l.base.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg:  "message",
				logrus.FieldKeyTime: "timestamp",
			},
		})
	} else {
		l.base.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return l
}

// Configure replaces the package-level logger.
func Configure(opts ...Option) {
	prev := logger
	logger = NewLogger(opts...)
	if prev != nil && prev.file != nil {
		prev.file.Close()
	}
}

// SetDebug enables debug output on every logger.
func SetDebug(debug bool) {
	isDebug.Store(debug)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) enabled(lvl logrus.Level) bool {
	if lvl == logrus.DebugLevel && isDebug.Load() {
		return true
	}
	return lvl <= l.level
}

// With returns an entry carrying the given fields.
func (l *Logger) With(fields ...Field) *Entry {
	return (&Entry{owner: l, entry: logrus.NewEntry(l.base)}).With(fields...)
}

// WithContext returns an entry bound to ctx.
func (l *Logger) WithContext(ctx context.Context) *Entry {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Entry{owner: l, entry: l.base.WithContext(ctx)}
}

func (l *Logger) Info(msg string)                           { l.With().Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.With().Infof(format, args...) }
func (l *Logger) Warn(msg string)                           { l.With().Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.With().Warnf(format, args...) }
func (l *Logger) Error(msg string)                          { l.With().Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.With().Errorf(format, args...) }
func (l *Logger) Debug(msg string)                          { l.With().Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.With().Debugf(format, args...) }

// Entry is a log line under construction with attached fields.
type Entry struct {
	owner *Logger
	entry *logrus.Entry
}

// With adds fields to the entry.
func (e *Entry) With(fields ...Field) *Entry {
	if len(fields) == 0 {
		return e
	}
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &Entry{owner: e.owner, entry: e.entry.WithFields(data)}
}

func (e *Entry) log(lvl logrus.Level, msg string) {
	if !e.owner.enabled(lvl) {
		return
	}
	e.entry.Log(lvl, msg)
}

func (e *Entry) Info(msg string)  { e.log(logrus.InfoLevel, msg) }
func (e *Entry) Warn(msg string)  { e.log(logrus.WarnLevel, msg) }
func (e *Entry) Error(msg string) { e.log(logrus.ErrorLevel, msg) }
func (e *Entry) Debug(msg string) { e.log(logrus.DebugLevel, msg) }

func (e *Entry) Infof(format string, args ...interface{}) {
	e.log(logrus.InfoLevel, fmt.Sprintf(format, args...))
}

func (e *Entry) Warnf(format string, args ...interface{}) {
	e.log(logrus.WarnLevel, fmt.Sprintf(format, args...))
}

func (e *Entry) Errorf(format string, args ...interface{}) {
	e.log(logrus.ErrorLevel, fmt.Sprintf(format, args...))
}

func (e *Entry) Debugf(format string, args ...interface{}) {
	e.log(logrus.DebugLevel, fmt.Sprintf(format, args...))
}

// Info logs a formatted message at info level.
func Info(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Debug logs a message with arguments
func Debug(msg string, args ...interface{}) {
	if len(args) == 0 {
		logger.Debug(msg)
		return
	}
	logger.Debugf(msg+": %v", args...)
}

// Debugf logs a formatted message
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Warn logs a message with arguments
func Warn(msg string, args ...interface{}) {
	if len(args) == 0 {
		logger.Warn(msg)
		return
	}
	logger.Warnf(msg+": %v", args...)
}

// Warnf logs a formatted warning message
func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Error logs an error message with arguments
func Error(msg string, args ...interface{}) {
	if len(args) == 0 {
		logger.Error(msg)
		return
	}
	logger.Errorf(msg+": %v", args...)
}

// Errorf logs a formatted error message
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// LogWithFields returns an entry on the package logger carrying fields.
func LogWithFields(fields ...Field) *Entry {
	return logger.With(fields...)
}

// LogWithError returns an entry describing err: its message, its kind and
// the identifying detail of typed application errors.
func LogWithError(err error) *Entry {
	return logger.With(errorFields(err)...)
}

// LogError logs err at error level with msg.
func LogError(err error, msg string) {
	LogWithError(err).Error(msg)
}

func errorFields(err error) []Field {
	if err == nil {
		return []Field{F("error", "<nil>")}
	}
	fields := []Field{
		F("error", err.Error()),
		F("error_kind", apperrors.KindOf(err).String()),
	}

	var fileErr *apperrors.FileError
	if apperrors.As(err, &fileErr) && fileErr.Path() != "" {
		fields = append(fields, F("path", fileErr.Path()))
	}
	var configErr *apperrors.ConfigError
	if apperrors.As(err, &configErr) && configErr.Param() != "" {
		fields = append(fields, F("param", configErr.Param()))
	}
	var remoteErr *apperrors.RemoteError
	if apperrors.As(err, &remoteErr) {
		if remoteErr.Endpoint() != "" {
			fields = append(fields, F("endpoint", remoteErr.Endpoint()))
		}
		if remoteErr.Status() != 0 {
			fields = append(fields, F("status", remoteErr.Status()))
		}
	}
	var entryErr *apperrors.EntryError
	if apperrors.As(err, &entryErr) && entryErr.ID() != "" {
		fields = append(fields, F("entry_id", entryErr.ID()))
	}
	return fields
}
