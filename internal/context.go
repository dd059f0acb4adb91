package internal

import (
	"context"
	"time"

	coreuser "github.com/frahmantamala/report-hub/internal/core/user"
)

type ctxKey string

const ContextCallerKey ctxKey = "caller"

// CallerFromContext returns the authenticated caller attached by the auth middleware.
func CallerFromContext(ctx context.Context) (coreuser.Caller, bool) {
	if ctx == nil {
		return coreuser.Caller{}, false
	}
	caller, ok := ctx.Value(ContextCallerKey).(coreuser.Caller)
	return caller, ok
}

func ContextWithCaller(ctx context.Context, caller coreuser.Caller) context.Context {
	return context.WithValue(ctx, ContextCallerKey, caller)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
