package log

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey int

const (
	sessionIDKey contextKey = iota
	sessionFieldsKey
)

// WithSessionID returns a context which knows its session ID.
// A session tracks one protocol round, such as a single sync event, across
// every goroutine that serves it. Extra fields are printed by Context.
func WithSessionID(ctx context.Context, sessionID string, fields ...zap.Field) context.Context {
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	if len(fields) > 0 {
		ctx = context.WithValue(ctx, sessionFieldsKey, fields)
	}
	return ctx
}

// WithNewSessionID is WithSessionID with a random session ID, for sessions
// that have no natural name.
func WithNewSessionID(ctx context.Context, fields ...zap.Field) context.Context {
	return WithSessionID(ctx, uuid.New().String(), fields...)
}

// ExtractSessionID extracts the session id from a context object.
func ExtractSessionID(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id, true
	}
	return "", false
}

// Context returns the session fields of ctx, to be passed to a logger.
func Context(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id, ok := ExtractSessionID(ctx); ok {
		fields = append(fields, zap.String("sessionId", id))
	}
	if extra, ok := ctx.Value(sessionFieldsKey).([]zap.Field); ok {
		fields = append(fields, extra...)
	}
	return fields
}
