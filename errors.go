package sentinelgate

import "errors"

var (
	// ErrInvalidCredentials covers unknown identifier, wrong secret, and
	// inactive principal at login. One indistinct error so responses do not
	// reveal account existence; audit events carry the precise cause.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPrincipalNotFound is returned when the token subject resolves to
	// no stored principal.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrPrincipalInactive is returned for soft-disabled principals.
	ErrPrincipalInactive = errors.New("principal inactive")

	// ErrTokenInvalid covers malformed tokens and bad signatures.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned past the token's stated expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMissingSubject is returned when a token carries no subject.
	ErrTokenMissingSubject = errors.New("token missing subject")

	// ErrStepUpNotEnrolled rejects privileged principals without step-up
	// enrollment.
	ErrStepUpNotEnrolled = errors.New("step-up authentication not enrolled")
	// ErrStepUpCodeRequired rejects privileged tokens that carry no
	// one-time code.
	ErrStepUpCodeRequired = errors.New("step-up code required")
	// ErrStepUpCodeInvalid rejects codes outside the current acceptance
	// window, including stale codes embedded in otherwise valid tokens.
	ErrStepUpCodeInvalid = errors.New("step-up code invalid or expired")
	// ErrStepUpNotProvisioned is returned by ConfirmStepUp before
	// ProvisionStepUp has stored a secret.
	ErrStepUpNotProvisioned = errors.New("step-up not provisioned")
	// ErrRootRequired rejects non-root principals from root-only operations.
	ErrRootRequired = errors.New("root role required")

	// ErrTenantNotAssigned is returned when a tenant-scoped authorization
	// finds a principal without a tenant binding.
	ErrTenantNotAssigned = errors.New("no tenant assigned to principal")
	// ErrTenantNotFound is returned when the bound tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrTenantNotActive is the base error for every non-Active tenant
	// status rejection.
	ErrTenantNotActive = errors.New("tenant not active")
	// ErrTenantReasonRequired rejects status transitions away from Active
	// that carry no reason.
	ErrTenantReasonRequired = errors.New("status reason required")

	// ErrLoginRateLimited is returned when the per-identifier failed-login
	// budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")

	// ErrAntiForgeryMissing is returned for mutating requests without a
	// token in header or cookie.
	ErrAntiForgeryMissing = errors.New("anti-forgery token missing")
	// ErrAntiForgeryInvalid covers bad signatures and tampered tokens.
	ErrAntiForgeryInvalid = errors.New("anti-forgery token invalid")
	// ErrAntiForgeryExpired is returned past the token's maximum age.
	ErrAntiForgeryExpired = errors.New("anti-forgery token expired")

	// ErrStoreUnavailable wraps counter-store and provider failures. It is
	// always a denial, never a bypass.
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrEngineNotReady is returned by methods on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
