package middleware

import (
	"errors"
	"net/http"

	"github.com/adrisa007/sentinelgate"
)

// AntiForgery applies the double-submit guard. Safe methods pass through
// and receive a token cookie when they do not already hold a valid one.
// Mutating methods outside the exempt prefixes must present a valid token;
// on success the token is rotated before the handler runs, and the fresh
// value is returned in both the cookie and the response header. Rejections
// carry a machine-readable X-Denied-Reason so clients can tell them apart
// from role-based 403s.
func AntiForgery(engine *sentinelgate.Engine) func(http.Handler) http.Handler {
	guard := engine.AntiForgery()
	exempt := engine.AntiForgeryExemptPrefixes()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) {
				if engine.ValidateAntiForgery(guard.FromRequest(r)) != nil {
					tok := guard.Issue()
					guard.SetCookie(w, r, tok)
					engine.MetricInc(sentinelgate.MetricAntiForgeryIssued)
				}
				next.ServeHTTP(w, r)
				return
			}

			if hasPrefix(r.URL.Path, exempt) {
				next.ServeHTTP(w, r)
				return
			}

			if err := engine.ValidateAntiForgery(guard.FromRequest(r)); err != nil {
				engine.MetricInc(sentinelgate.MetricAntiForgeryRejected)
				switch {
				case errors.Is(err, sentinelgate.ErrAntiForgeryMissing):
					w.Header().Set("X-Denied-Reason", "csrf_missing")
					writeError(w, http.StatusForbidden, "anti-forgery token missing")
				case errors.Is(err, sentinelgate.ErrAntiForgeryExpired):
					w.Header().Set("X-Denied-Reason", "csrf_expired")
					writeError(w, http.StatusForbidden, "anti-forgery token expired")
				default:
					w.Header().Set("X-Denied-Reason", "csrf_invalid")
					writeError(w, http.StatusForbidden, "anti-forgery token invalid")
				}
				return
			}

			// Rotate on every successful validation; clients must track the
			// freshest value.
			tok := guard.Issue()
			guard.SetCookie(w, r, tok)
			w.Header().Set(guard.HeaderName(), tok)
			engine.MetricInc(sentinelgate.MetricAntiForgeryRotated)

			next.ServeHTTP(w, r)
		})
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
