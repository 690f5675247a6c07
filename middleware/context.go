package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/adrisa007/sentinelgate"
)

type accessContextKey struct{}

func withAccess(ctx context.Context, access *sentinelgate.Access) context.Context {
	return context.WithValue(ctx, accessContextKey{}, access)
}

// AccessFromContext returns the Access attached by [Authenticate], if any.
func AccessFromContext(ctx context.Context) (*sentinelgate.Access, bool) {
	access, ok := ctx.Value(accessContextKey{}).(*sentinelgate.Access)
	return access, ok
}

// clientIdentity resolves who the caller is for rate accounting: the
// authenticated principal when a guard already ran, then the first
// X-Forwarded-For hop, then X-Real-IP, then the socket address.
func clientIdentity(r *http.Request) string {
	if access, ok := AccessFromContext(r.Context()); ok {
		return access.Principal.PrincipalID
	}
	return clientIP(r)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// requestContext attaches caller address and route to ctx for audit
// events.
func requestContext(r *http.Request) context.Context {
	ctx := sentinelgate.WithClientIP(r.Context(), clientIP(r))
	return sentinelgate.WithRoute(ctx, r.URL.Path)
}
