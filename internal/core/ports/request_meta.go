package ports

import "context"

// RequestMeta carries transport details that services copy into audit events.
type RequestMeta struct {
	RemoteIP  string
	RequestID string
}

type requestMetaKey struct{}

// WithRequestMeta stores m in ctx.
func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, m)
}

// RequestMetaFrom returns the metadata stored in ctx, if any.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return m
}
