package goshape

import "context"

// serviceKey is a unique context key per service type.
type serviceKey[T any] struct{}

// WithService stores a typed service in ctx for check and convert callbacks,
// for example a repository consulted by an async uniqueness check.
func WithService[T any](ctx context.Context, svc T) context.Context {
	return context.WithValue(ctx, serviceKey[T]{}, any(svc))
}

// Service retrieves a typed service from ctx.
func Service[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(serviceKey[T]{}).(T)
	return v, ok
}

// RequireService returns the service, or a service_unavailable issue that a
// callback can return as is.
func RequireService[T any](ctx context.Context) (T, error) {
	if v, ok := Service[T](ctx); ok {
		return v, nil
	}
	var zero T
	return zero, NewIssue(CodeServiceUnavailable, nil, nil)
}
