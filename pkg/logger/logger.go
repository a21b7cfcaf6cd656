package logger

import (
	"context"
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Output is JSON on stdout;
// local and dev environments log at debug and include source locations.
// No business logic should depend on logging implementation details.
func New(appEnv string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if appEnv == "local" || appEnv == "dev" {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}

	h := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(h.WithAttrs([]slog.Attr{slog.String("service", "feedback-call-api")}))
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
