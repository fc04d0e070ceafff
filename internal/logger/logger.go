package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/chachabrian/sendit-backend/internal/config"
)

// Logger wraps logrus.Logger with request and domain event helpers
type Logger struct {
	*logrus.Logger
}

// Fields represents a map of fields for structured logging
type Fields map[string]interface{}

// New creates a logger from the logging configuration
func New(cfg *config.LoggingConfig) (*Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	l.SetLevel(level)

	switch cfg.Format {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	var output io.Writer = os.Stdout
	if cfg.Output == "file" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, err
		}
		output = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
	}
	l.SetOutput(output)

	return &Logger{Logger: l}, nil
}

// Discard returns a logger that drops everything, for tests and tools
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}

func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields(fields))
}

func (l *Logger) LogRequest(requestID, method, path, clientIP string, statusCode int, durationMs int64) {
	entry := l.WithFields(Fields{
		"request_id":  requestID,
		"method":      method,
		"path":        path,
		"client_ip":   clientIP,
		"status_code": statusCode,
		"duration_ms": durationMs,
		"type":        "request",
	})

	switch {
	case statusCode >= 500:
		entry.Error("HTTP request")
	case durationMs > 1000:
		entry.Warn("Slow HTTP request")
	default:
		entry.Info("HTTP request")
	}
}

func (l *Logger) LogAuth(kind string, id uint, email, action string, success bool) {
	entry := l.WithFields(Fields{
		"identity_kind": kind,
		"identity_id":   id,
		"email":         email,
		"action":        action,
		"success":       success,
		"type":          "auth",
	})

	if success {
		entry.Info("Authentication event")
	} else {
		entry.Warn("Authentication failed")
	}
}

func (l *Logger) LogParcel(parcelID, userID uint, action string, details Fields) {
	fields := Fields{
		"parcel_id": parcelID,
		"user_id":   userID,
		"action":    action,
		"type":      "parcel",
	}
	for k, v := range details {
		fields[k] = v
	}
	l.WithFields(fields).Info("Parcel event")
}

func (l *Logger) LogSecurity(event, clientIP string, details Fields) {
	fields := Fields{
		"event": event,
		"ip":    clientIP,
		"type":  "security",
	}
	for k, v := range details {
		fields[k] = v
	}
	l.WithFields(fields).Warn("Security event")
}
