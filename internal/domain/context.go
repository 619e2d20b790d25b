package domain

import "context"

type contextKey string

const (
	requestIDKey contextKey = "requestID"
	principalKey contextKey = "principal"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// Actor names the caller for audit entries: the staff email, or "guest" for public requests.
func Actor(ctx context.Context) string {
	if p, ok := PrincipalFrom(ctx); ok && p.Email != "" {
		return p.Email
	}
	return "guest"
}
