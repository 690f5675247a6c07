package middleware

import (
	"net/http"
	"strconv"

	"github.com/adrisa007/sentinelgate"
	"github.com/adrisa007/sentinelgate/internal/rate"
)

// RateLimit enforces the fixed-window request budgets. Requests to
// loginPath draw from the stricter login budget; everything else draws
// from the global budget. Exempt prefixes from the engine configuration
// pass through uncounted. A governor store failure denies with 503: an
// unreachable counter store must never become a bypass.
func RateLimit(engine *sentinelgate.Engine, loginPath string) func(http.Handler) http.Handler {
	cfg := engine.RateLimitConfig()
	governor := engine.Governor()

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasPrefix(r.URL.Path, cfg.ExemptPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			class := rate.ClassGlobal
			if loginPath != "" && r.URL.Path == loginPath {
				class = rate.ClassLogin
			}

			res, err := governor.Allow(r.Context(), clientIdentity(r), class)
			if err != nil {
				writeError(w, http.StatusServiceUnavailable, "rate limiting unavailable")
				return
			}

			reset := int(res.RetryAfter.Seconds())
			if reset < 1 {
				reset = 1
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(reset))

			if !res.Allowed {
				engine.MetricInc(sentinelgate.MetricRateLimitHit)
				w.Header().Set("Retry-After", strconv.Itoa(reset))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
