package access

import "context"

type ctxKey struct{}

// ContextWithToken stores the caller identity in the context.
func ContextWithToken(ctx context.Context, t *Token) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext extracts the caller identity. Returns nil for anonymous callers.
func FromContext(ctx context.Context) *Token {
	if t, ok := ctx.Value(ctxKey{}).(*Token); ok {
		return t
	}
	return nil
}
