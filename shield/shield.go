// Package shield provides the HTTP middleware stack for the XRL backend:
// security headers, request tracing, body limits, HEAD handling, and rate
// limiting for the browser-backed endpoints.
//
// Usage:
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack(db) {
//	    r.Use(mw)
//	}
package shield

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
)

type contextKey string

const (
	// LoggerKey is the context key for the per-request structured logger.
	LoggerKey contextKey = "shield_logger"

	// TraceIDKey is the context key for the request trace ID.
	TraceIDKey contextKey = "shield_trace_id"
)

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// GetTraceID retrieves the request trace ID from the context.
func GetTraceID(ctx context.Context) string {
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}

// DefaultStack returns the standard middleware stack for the XRL backend.
// Ordered: HeadToGet → SecurityHeaders → MaxFormBody → TraceID → RateLimiter.
// db backs the rate-limit rules table; pass nil to disable rate limiting.
// The limiter's rule reloader and bucket GC run until done is closed, so
// runtime edits to the rate_limits table take effect without a restart.
func DefaultStack(db *sql.DB, done <-chan struct{}) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxFormBody(64 * 1024),
		TraceID,
	}
	if db != nil {
		rl := NewRateLimiter(db, "/images/", "/static/")
		rl.StartReloader(done)
		stack = append(stack, rl.Middleware)
	}
	return stack
}
