package invite

import (
	"context"

	"github.com/goliatone/go-router"
)

// CallerLocalsKey is the router locals key the protected route uses
const CallerLocalsKey = "caller"

var callerCtxKey = &contextKey{"caller"}

type contextKey struct {
	name string
}

// WithCaller sets the Caller in the given context
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey, caller)
}

// CallerFromContext finds the caller in the context
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	raw, ok := ctx.Value(callerCtxKey).(*Caller)
	return raw, ok && raw != nil
}

// GetRouterCaller extracts the Caller from the router context, checking
// locals first and the request context second.
func GetRouterCaller(c router.Context) (*Caller, bool) {
	if raw, ok := c.Locals(CallerLocalsKey).(*Caller); ok && raw != nil {
		return raw, true
	}
	return CallerFromContext(c.Context())
}
