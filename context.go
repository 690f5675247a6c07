package sentinelgate

import "context"

type clientIPContextKey struct{}
type routeContextKey struct{}

// WithClientIP attaches the resolved caller address to ctx. The engine uses
// it for audit events and failed-login accounting.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRoute attaches the matched route path to ctx for audit events.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeContextKey{}, route)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	route, _ := ctx.Value(routeContextKey{}).(string)
	return route
}
