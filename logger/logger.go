// Package logger builds the JSON loggers shared by the HTTP layer, the
// database layer and the CLI.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

const RequestIDHeader = "X-Request-ID"

// New returns a JSON logger tagged with the service name and host.
func New(service string) *logrus.Entry {
	return NewWithWriter(service, os.Stdout)
}

func NewWithWriter(service string, w io.Writer) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg:  "message",
			logrus.FieldKeyTime: "timestamp",
		},
	})
	return l.WithFields(logrus.Fields{
		"service":  service,
		"hostname": hostname(),
	})
}

// Discard is used by tests that do not inspect log output.
func Discard() *logrus.Entry {
	return NewWithWriter("test", io.Discard)
}

// Gin logs one entry per request and propagates a request id.
func Gin(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"action":     "http_request",
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("request failed")
		case c.Writer.Status() >= 500:
			entry.Error("request failed")
		default:
			entry.Info("request handled")
		}
	}
}

// RequestLogger returns log enriched with the request id set by Gin.
func RequestLogger(c *gin.Context, log *logrus.Entry) *logrus.Entry {
	if id, ok := c.Get("request_id"); ok {
		return log.WithField("request_id", id)
	}
	return log
}

// Gorm adapts log to gorm's logger interface.
func Gorm(log *logrus.Entry) gormlogger.Interface {
	return gormlogger.New(log.WithField("action", "sql"), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "unknown-host"
	}
	return h
}
