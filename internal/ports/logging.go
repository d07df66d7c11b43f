package ports

import (
	"context"

	"github.com/google/uuid"
)

// Logger is the structured logging contract implemented by internal/logging
// and consumed by every component (store, orchestrator adapter, status
// streamers, API handlers). All log calls take key/value pairs and must be
// safe for concurrent use. Common fields:
//   - request_id (generated at the API boundary, see WithRequestID)
//   - component (store|orchestrator|dagcompiler|api|...)
//   - project_id / block_id / run_id for timed operations
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, msg string, fields ...interface{})
	Error(ctx context.Context, msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

type requestIDKey struct{}

// WithRequestID attaches a request id to the context so downstream layers
// emit correlated logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID extracts a request id from context, or "" when none was set.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// NewRequestID produces a new request id for API middleware to attach to
// incoming requests.
func NewRequestID() string {
	return uuid.NewString()
}
