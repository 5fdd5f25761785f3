package sentinell

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
)

// LoggerFromContext returns the logger bound to ctx, falling back to ctxlog's default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return ctxlog.From(ctx)
}

// ContextWithLogger binds logger to ctx so that loops, supervisors and tools log with the same attributes.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return ctxlog.With(ctx, logger)
}
