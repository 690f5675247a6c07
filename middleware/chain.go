package middleware

import (
	"net/http"

	"github.com/adrisa007/sentinelgate"
)

// Chain composes middlewares so the first argument is the outermost.
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// Pipeline returns the canonical guard order for a protected route: rate
// governance, then anti-forgery, then authentication. loginPath selects
// which path draws from the stricter login budget.
func Pipeline(engine *sentinelgate.Engine, loginPath string, opts sentinelgate.AuthorizeOptions) func(http.Handler) http.Handler {
	return Chain(
		RateLimit(engine, loginPath),
		AntiForgery(engine),
		Authenticate(engine, opts),
	)
}

// Public returns the guard order for unauthenticated routes: rate
// governance and anti-forgery only.
func Public(engine *sentinelgate.Engine, loginPath string) func(http.Handler) http.Handler {
	return Chain(
		RateLimit(engine, loginPath),
		AntiForgery(engine),
	)
}
