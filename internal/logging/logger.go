// Package logging defines the structured-logging interface used across the
// server. Two backends are provided: log/slog (default) and zap.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "course added", "course_id", id, "user_id", userID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions, such as a failed
	// secondary update.
	Warn(ctx context.Context, msg string, args ...any)

	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

type ctxAttrsKey struct{}

// WithContext returns a copy of ctx carrying key–value pairs. Both backends
// add them to every record logged with that context, ahead of the call's own
// args, e.g.:
//
//	ctx = logging.WithContext(ctx, "user_id", claims.UserID)
func WithContext(ctx context.Context, args ...any) context.Context {
	return context.WithValue(ctx, ctxAttrsKey{}, append(slices.Clip(contextArgs(ctx)), args...))
}

func contextArgs(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	args, _ := ctx.Value(ctxAttrsKey{}).([]any)
	return args
}

// withContextArgs prepends the pairs carried by ctx to args.
func withContextArgs(ctx context.Context, args []any) []any {
	extra := contextArgs(ctx)
	if len(extra) == 0 {
		return args
	}
	return append(slices.Clip(extra), args...)
}

// Supported backends.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// New builds a Logger for the named backend. Output goes to w (stdout when nil).
func New(backend string, w io.Writer) (Logger, error) {
	if w == nil {
		w = os.Stdout
	}
	switch backend {
	case "", BackendSlog:
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, nil))), nil
	case BackendZap:
		return NewZapLoggerTo(w), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
