package logger

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// AddFields returns a context whose logger carries the extra fields.
func AddFields(ctx context.Context, fields ...zap.Field) context.Context {
	l := ctxzap.Extract(ctx)
	return ctxzap.ToContext(ctx, l.With(fields...))
}

// WithAction tags the context logger with an "action" field describing the
// current flow.
func WithAction(ctx context.Context, action string) context.Context {
	return AddFields(ctx, zap.String("action", action))
}
