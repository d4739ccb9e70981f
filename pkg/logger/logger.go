// Package logger provides context-aware structured logging for pluginkit
// commands. Each command invocation carries its own logrus entry in the
// context, tagged with a run id so log lines from one run can be grouped.
package logger

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// G is a convenience alias for GetLogger.
	G = GetLogger
	// L is the global logger entry used when the context carries none.
	L = logrus.NewEntry(newLogger())
)

type (
	loggerKey struct{}
)

// WithLogger attaches a logger entry to the given context.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	e := logger.WithContext(ctx)
	return context.WithValue(ctx, loggerKey{}, e)
}

// GetLogger retrieves the logger entry from the context, falling back to L.
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return L
	}

	logger := ctx.Value(loggerKey{})
	if logger == nil {
		return L.WithContext(ctx)
	}

	return logger.(*logrus.Entry)
}

// WithRunID derives a logger tagged with a fresh run_id and the command name
// and stores it in the returned context. The run id is returned as well so it
// can be attached to spans.
func WithRunID(ctx context.Context, command string) (context.Context, string) {
	runID := uuid.New().String()
	entry := G(ctx).WithFields(logrus.Fields{
		"run_id":  runID,
		"command": command,
	})
	return WithLogger(ctx, entry), runID
}

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	setLoggerFormat(l, "fmt")
	return l
}

func setLoggerFormat(logger *logrus.Logger, format string) {
	switch format {
	case "json":
		logger.Formatter = &logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "logLevel",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		}
	case "text", "fmt":
		fallthrough
	default:
		logger.Formatter = &logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		}
	}
}

// SetLogLevel sets the log level for the global logger
func SetLogLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	L.Logger.SetLevel(logLevel)
	return nil
}

// SetLogFormat sets the log format ("fmt" or "json") for the global logger
func SetLogFormat(format string) {
	setLoggerFormat(L.Logger, format)
}
