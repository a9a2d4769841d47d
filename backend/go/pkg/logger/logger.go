package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"OnboardingBuddy/backend/go/internal/models"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry with the structured fields used across the bot.
type Logger struct {
	entry *logrus.Entry
}

// Init configures the global logrus instance: JSON output, level and writers.
func Init(level logrus.Level, outputs ...io.Writer) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	switch len(outputs) {
	case 0:
		logrus.SetOutput(os.Stdout)
	case 1:
		logrus.SetOutput(outputs[0])
	default:
		logrus.SetOutput(io.MultiWriter(outputs...))
	}

	logrus.SetLevel(level)
}

// OpenFile opens (and creates) the log file in append mode.
func OpenFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file '%s': %w", path, err)
	}
	return f, nil
}

// ParseLevel maps configuration level names to logrus levels. "critical" is
// treated as error; unknown names fall back to info.
func ParseLevel(s string) logrus.Level {
	if strings.EqualFold(s, "critical") {
		return logrus.ErrorLevel
	}
	level, err := logrus.ParseLevel(strings.ToLower(s))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// New creates a Logger with the base service fields set.
func New(serviceName, traceID, userID string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"service_name": serviceName,
			"trace_id":     traceID,
			"user_id":      userID,
		}),
	}
}

// WithUser returns a copy bound to a Telegram user id.
func (l *Logger) WithUser(userID int64) *Logger {
	return &Logger{entry: l.entry.WithField("user_id", strconv.FormatInt(userID, 10))}
}

// WithRequest returns a copy carrying the request description.
func (l *Logger) WithRequest(req models.RequestInfo) *Logger {
	return &Logger{entry: l.entry.WithField("request_info", req)}
}

// WithError returns a copy carrying structured error information.
func (l *Logger) WithError(err models.ErrorInfo) *Logger {
	return &Logger{entry: l.entry.WithField("error", err)}
}

// WithPayload returns a copy carrying business data.
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
