package middleware

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ShiftAudit/Models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig holds configuration for the logging middleware
type LogConfig struct {
	// Enable console logging
	Console bool
	// Log file path, empty disables file logging
	LogFilePath string
	// Include user ID in logs
	IncludeUserID bool
	// Skip logging for specific paths
	SkipPaths []string
	// Logger overrides the logger built from Console and LogFilePath
	Logger *zap.Logger
}

// LogData contains all the information that will be logged
type LogData struct {
	Timestamp     time.Time
	Method        string
	Path          string
	URL           string
	Status        int
	Latency       time.Duration
	IP            string
	UserAgent     string
	RequestID     string
	Error         string
	UserID        string
	Email         string
	ContentLength int
}

func (d LogData) fields() []zap.Field {
	fields := []zap.Field{
		zap.Time("timestamp", d.Timestamp),
		zap.String("method", d.Method),
		zap.String("path", d.Path),
		zap.String("url", d.URL),
		zap.Int("status", d.Status),
		zap.Duration("latency", d.Latency),
		zap.String("ip", d.IP),
		zap.String("user_agent", d.UserAgent),
		zap.Int("content_length", d.ContentLength),
	}
	if d.RequestID != "" {
		fields = append(fields, zap.String("request_id", d.RequestID))
	}
	if d.UserID != "" {
		fields = append(fields, zap.String("user_id", d.UserID), zap.String("email", d.Email))
	}
	if d.Error != "" {
		fields = append(fields, zap.String("error", d.Error))
	}
	return fields
}

// DefaultLogConfig returns a default configuration for the logging middleware
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Console:       true,
		LogFilePath:   "logs/requests.log",
		IncludeUserID: true,
		SkipPaths:     []string{"/health", "/metrics"},
	}
}

// NewRequestLogger builds the JSON logger the middleware writes to.
func NewRequestLogger(cfg LogConfig) (*zap.Logger, error) {
	var outputs []string
	if cfg.Console {
		outputs = append(outputs, "stdout")
	}
	if cfg.LogFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFilePath), 0755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		outputs = append(outputs, cfg.LogFilePath)
	}
	if len(outputs) == 0 {
		return zap.NewNop(), nil
	}

	zc := zap.NewProductionConfig()
	zc.OutputPaths = outputs
	zc.Sampling = nil
	zc.DisableCaller = true
	zc.EncoderConfig.TimeKey = ""
	zc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	return zc.Build()
}

// LoggingMiddleware creates a new logging middleware with the given configuration
func LoggingMiddleware(config ...LogConfig) (fiber.Handler, error) {
	cfg := DefaultLogConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	logger := cfg.Logger
	if logger == nil {
		var err error
		if logger, err = NewRequestLogger(cfg); err != nil {
			return nil, err
		}
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := skip[c.Path()]; ok {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		data := LogData{
			Timestamp:     start,
			Method:        c.Method(),
			Path:          c.Path(),
			URL:           c.OriginalURL(),
			Status:        c.Response().StatusCode(),
			Latency:       time.Since(start),
			IP:            c.IP(),
			UserAgent:     c.Get(fiber.HeaderUserAgent),
			RequestID:     c.Get(fiber.HeaderXRequestID),
			ContentLength: len(c.Response().Body()),
		}
		if err != nil {
			data.Error = err.Error()
			// The error handler has not run yet, so the status is still 200.
			var fe *fiber.Error
			if errors.As(err, &fe) {
				data.Status = fe.Code
			} else {
				data.Status = fiber.StatusInternalServerError
			}
		}
		if cfg.IncludeUserID {
			if user, ok := c.Locals(localUser).(Models.User); ok {
				data.UserID = user.ID.String()
				data.Email = user.Email
			}
		}

		switch {
		case data.Status >= 500:
			logger.Error("request", data.fields()...)
		case data.Status >= 400:
			logger.Warn("request", data.fields()...)
		default:
			logger.Info("request", data.fields()...)
		}
		return err
	}, nil
}

// RequestLogger creates a middleware that logs detailed request information
func RequestLogger(logFile string) (fiber.Handler, error) {
	return LoggingMiddleware(LogConfig{
		Console:       true,
		LogFilePath:   logFile,
		IncludeUserID: true,
		SkipPaths:     []string{"/health", "/metrics", "/static"},
	})
}
