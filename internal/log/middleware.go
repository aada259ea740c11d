package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger writes the recurring events of the workstation with a
// fixed field set.
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// emit logs fields under the component they name, if any.
func (sl *StructuredLogger) emit(ctx context.Context, level slog.Level, msg string, fields LogFields, extra ...any) {
	logger := sl.logger
	if c, ok := fields[FieldComponent].(string); ok {
		logger = logger.WithComponent(c)
		delete(fields, FieldComponent)
	}
	logger.Log(ctx, level, msg, append(fields.ToSlice(), extra...)...)
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.emit(ctx, slog.LevelInfo, "HTTP request started", fields)
}

// LogHTTPEnd logs the completion of an HTTP request; 4xx at Warn, 5xx at Error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)

	sl.emit(ctx, level, "HTTP request completed", fields)
}

// LogLabelPrinted logs a committed label print
func (sl *StructuredLogger) LogLabelPrinted(ctx context.Context, sessionID, labelID, region string, historySize int) {
	fields := NewFields().
		WithLabel(labelID, region).
		WithSession(sessionID).
		WithOperation(OpPrint).
		WithComponent(ComponentWorkstation)

	sl.emit(ctx, slog.LevelInfo, "Label printed", fields, "history_size", historySize)
}

// LogExport logs a delivered export artifact
func (sl *StructuredLogger) LogExport(ctx context.Context, sessionID, date, format string, bytes int) {
	fields := NewFields().
		WithExport(date, format).
		WithSession(sessionID).
		WithOperation(OpExport).
		WithComponent(ComponentExport)

	sl.emit(ctx, slog.LevelInfo, "Export delivered", fields, "bytes", bytes)
}

// LogError logs err under component and operation.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.emit(ctx, slog.LevelError, msg, fields)
}
