// Package observability carries run-scoped logging context through context.Context.
package observability

import (
	"context"
	"log/slog"
)

// LogContext holds structured logging context information for one pipeline run.
type LogContext struct {
	RunID    string
	TenantID string
	UserID   string
	Stage    string
	Keyword  string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RunID = runID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithTenantID adds a tenant (organization) ID to the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	lc := extractLogContext(ctx)
	lc.TenantID = tenantID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithUserID adds the caller ID to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	lc := extractLogContext(ctx)
	lc.UserID = userID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

// WithKeyword adds the subject keyword to the context.
func WithKeyword(ctx context.Context, keyword string) context.Context {
	lc := extractLogContext(ctx)
	lc.Keyword = keyword
	return context.WithValue(ctx, logContextKey, lc)
}

// WithRun sets every run-level field at once.
func WithRun(ctx context.Context, runID, tenantID, userID, keyword string) context.Context {
	lc := extractLogContext(ctx)
	lc.RunID = runID
	lc.TenantID = tenantID
	lc.UserID = userID
	lc.Keyword = keyword
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := make([]slog.Attr, 0, 5)
	if lc.RunID != "" {
		attrs = append(attrs, slog.String("run.id", lc.RunID))
	}
	if lc.TenantID != "" {
		attrs = append(attrs, slog.String("tenant.id", lc.TenantID))
	}
	if lc.UserID != "" {
		attrs = append(attrs, slog.String("user.id", lc.UserID))
	}
	if lc.Stage != "" {
		attrs = append(attrs, slog.String("stage", lc.Stage))
	}
	if lc.Keyword != "" {
		attrs = append(attrs, slog.String("keyword", lc.Keyword))
	}
	return attrs
}

func logContext(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	all := append(getLogAttrs(ctx), attrs...)
	slog.LogAttrs(ctx, level, msg, all...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelInfo, msg, attrs)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelError, msg, attrs)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logContext(ctx, slog.LevelDebug, msg, attrs)
}
