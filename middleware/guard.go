package middleware

import (
	"net/http"
	"strings"

	"github.com/adrisa007/sentinelgate"
)

// Authenticate runs the full authorization gate on every request: bearer
// token, principal, step-up re-assertion, and (when opts.TenantScoped) the
// tenant status. On success the resulting Access is attached to the
// request context; handlers read it via [AccessFromContext]. Denials are
// translated to the wire contract: X-MFA-Required and X-MFA-Failed for
// step-up outcomes, X-Entidade-Status for tenant gating, X-Denied-Reason
// with the stable reason code.
func Authenticate(engine *sentinelgate.Engine, opts sentinelgate.AuthorizeOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			ctx := requestContext(r)
			access, err := engine.Authorize(ctx, tok, opts)
			if err != nil {
				denial, ok := sentinelgate.AsDenial(err)
				if !ok {
					writeError(w, http.StatusServiceUnavailable, "authorization unavailable")
					return
				}

				if denial.StatusCode == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", "Bearer")
				}
				if denial.StepUpRequired {
					w.Header().Set("X-MFA-Required", "true")
				}
				if denial.StepUpFailed {
					w.Header().Set("X-MFA-Failed", "true")
				}
				if denial.TenantStatus != "" {
					w.Header().Set("X-Entidade-Status", denial.TenantStatus)
				}
				w.Header().Set("X-Denied-Reason", denial.Code)

				writeError(w, denial.StatusCode, denial.Detail)
				return
			}

			next.ServeHTTP(w, r.WithContext(withAccess(ctx, access)))
		})
	}
}

// RequireRootStepUp guards the most sensitive routes. It must run inside
// [Authenticate].
func RequireRootStepUp(engine *sentinelgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := AccessFromContext(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			if err := engine.RequireRootStepUp(access); err != nil {
				denial, ok := sentinelgate.AsDenial(err)
				if !ok {
					writeError(w, http.StatusForbidden, "forbidden")
					return
				}
				if denial.StepUpRequired {
					w.Header().Set("X-MFA-Required", "true")
				}
				w.Header().Set("X-Denied-Reason", denial.Code)
				writeError(w, denial.StatusCode, denial.Detail)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, tok, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || tok == "" {
		return "", false
	}
	return strings.TrimSpace(tok), true
}
