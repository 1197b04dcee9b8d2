// Package logger carries request and flow fields on the context logger.
package logger

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// AddFields returns a context whose logger carries the extra fields
func AddFields(ctx context.Context, fields ...zap.Field) context.Context {
	return ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(fields...))
}

// WithAction names the flow being executed ("action" field)
func WithAction(ctx context.Context, action string) context.Context {
	return AddFields(ctx, zap.String("action", action))
}

// WithSession tags the context logger with the session id and the flow name
func WithSession(ctx context.Context, sessionID, action string) context.Context {
	return AddFields(ctx,
		zap.String("session_id", sessionID),
		zap.String("action", action),
	)
}
