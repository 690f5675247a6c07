package sentinelgate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/adrisa007/sentinelgate/token"
)

// Denial is the error type returned by [Engine.Authorize] on every
// rejection. It wraps the underlying sentinel and carries the
// outward-facing details the HTTP layer needs: status code, stable reason
// code, human guidance, and the step-up / tenant flags that drive the
// response headers.
type Denial struct {
	// Err is the underlying sentinel; errors.Is sees through it.
	Err error
	// StatusCode is the HTTP status the rejection maps to.
	StatusCode int
	// Code is a stable machine-readable reason, e.g. "token_expired".
	Code string
	// Detail is guidance text safe to return to the caller.
	Detail string
	// TenantStatus is the wire name of the tenant status when the tenant
	// stage denied, empty otherwise.
	TenantStatus string
	// StepUpRequired is set when the token lacks a mandatory one-time code.
	StepUpRequired bool
	// StepUpFailed is set when the embedded code failed re-validation.
	StepUpFailed bool
}

func (d *Denial) Error() string { return d.Detail }

func (d *Denial) Unwrap() error { return d.Err }

// AsDenial extracts the Denial from an Authorize error chain.
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	ok := errors.As(err, &d)
	return d, ok
}

func deny(sentinel error, status int, code, detail string) *Denial {
	return &Denial{
		Err:        sentinel,
		StatusCode: status,
		Code:       code,
		Detail:     detail,
	}
}

// tenantDenial maps a non-active tenant status to its rejection. The switch
// is exhaustive over the non-active states; an unknown status still denies.
func tenantDenial(rec TenantRecord) *Denial {
	d := &Denial{
		Err:          ErrTenantNotActive,
		StatusCode:   http.StatusForbidden,
		TenantStatus: rec.Status.String(),
	}

	switch rec.Status {
	case TenantInactive:
		d.Code = "tenant_inactive"
		d.Detail = "tenant is inactive; contact support to reactivate"
	case TenantSuspended:
		d.Code = "tenant_suspended"
		d.Detail = "tenant is suspended"
	case TenantBlocked:
		d.Code = "tenant_blocked"
		d.Detail = "tenant is blocked"
	case TenantUnderReview:
		d.Code = "tenant_under_review"
		d.Detail = "tenant is under review; access is temporarily restricted"
	default:
		d.Code = "tenant_not_active"
		d.Detail = "tenant is not active"
	}

	if rec.StatusReason != "" {
		d.Detail = fmt.Sprintf("%s: %s", d.Detail, rec.StatusReason)
	}

	return d
}

// Authorize runs the full gate for one request: verify the token, resolve
// the principal, re-assert step-up for privileged roles, and, when
// requested, check the tenant status. Every stage is evaluated fresh
// against current store state; nothing is trusted from the token beyond
// subject and embedded code. All rejections return a [*Denial].
func (e *Engine) Authorize(ctx context.Context, tokenStr string, opts AuthorizeOptions) (*Access, error) {
	if e == nil || e.principalProvider == nil {
		return nil, ErrEngineNotReady
	}

	start := e.now()
	defer e.observeAuthorizeLatency(start)

	access, err := e.authorize(ctx, tokenStr, opts)
	if err != nil {
		e.metrics.Inc(MetricAuthorizeDenied)
		e.emitAudit(ctx, auditEventAuthorize, false, auditSubject(access), auditRole(access), err, nil)
		return nil, err
	}

	e.metrics.Inc(MetricAuthorizeAllowed)
	e.emitAudit(ctx, auditEventAuthorize, true, access.Principal.PrincipalID, access.Principal.Role, nil, nil)

	return access, nil
}

func (e *Engine) authorize(ctx context.Context, tokenStr string, opts AuthorizeOptions) (*Access, error) {
	claims, err := e.tokens.Verify(tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return nil, deny(ErrTokenExpired, http.StatusUnauthorized, "token_expired", "session token expired")
		default:
			return nil, deny(ErrTokenInvalid, http.StatusUnauthorized, "token_invalid", "session token invalid")
		}
	}
	if claims.Subject == "" {
		return nil, deny(ErrTokenMissingSubject, http.StatusUnauthorized, "token_invalid", "session token carries no subject")
	}

	lctx, cancel := e.lookupCtx(ctx)
	principal, err := e.principalProvider.GetPrincipalByID(lctx, claims.Subject)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, deny(ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable", "authorization temporarily unavailable")
		}
		return nil, deny(ErrPrincipalNotFound, http.StatusUnauthorized, "principal_not_found", "session token invalid")
	}
	if !principal.Active {
		return nil, deny(ErrPrincipalInactive, http.StatusUnauthorized, "principal_inactive", "account is inactive")
	}

	access := &Access{Principal: principal}

	switch principal.Role {
	case RoleStandard:
		// No step-up at request time, enrolled or not.
	case RoleManager, RoleRoot:
		e.metrics.Inc(MetricStepUpRequired)

		if !principal.StepUpEnabled {
			d := deny(ErrStepUpNotEnrolled, http.StatusForbidden, "stepup_not_enrolled", "step-up authentication required but not enrolled")
			d.StepUpRequired = true
			return access, d
		}
		if claims.StepUpCode == "" {
			d := deny(ErrStepUpCodeRequired, http.StatusForbidden, "stepup_required", "session token carries no step-up code")
			d.StepUpRequired = true
			return access, d
		}

		ok, err := e.stepUp.VerifyCode(principal.StepUpSecret, claims.StepUpCode, e.now())
		if err != nil {
			return access, deny(ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable", "authorization temporarily unavailable")
		}
		if !ok {
			// The embedded code aged out of the acceptance window. The session
			// effectively expires here even though the signature is still
			// valid.
			e.metrics.Inc(MetricStepUpFailure)
			d := deny(ErrStepUpCodeInvalid, http.StatusForbidden, "stepup_failed", "step-up code invalid or expired; sign in again")
			d.StepUpFailed = true
			return access, d
		}

		e.metrics.Inc(MetricStepUpSuccess)
		access.StepUpVerified = true
	default:
		return access, deny(ErrTokenInvalid, http.StatusUnauthorized, "role_unknown", "unrecognized role")
	}

	if opts.TenantScoped {
		tenant, d := e.resolveTenant(ctx, principal)
		if d != nil {
			e.metrics.Inc(MetricTenantDenied)
			return access, d
		}
		access.Tenant = tenant
	}

	return access, nil
}

func (e *Engine) resolveTenant(ctx context.Context, principal PrincipalRecord) (*TenantRecord, *Denial) {
	if principal.TenantID == "" {
		return nil, deny(ErrTenantNotAssigned, http.StatusNotFound, "tenant_not_assigned", "no tenant assigned to this account")
	}
	if e.tenantProvider == nil {
		return nil, deny(ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable", "tenant resolution unavailable")
	}

	lctx, cancel := e.lookupCtx(ctx)
	tenant, err := e.tenantProvider.GetTenantByID(lctx, principal.TenantID)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, deny(ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable", "tenant resolution unavailable")
		}
		return nil, deny(ErrTenantNotFound, http.StatusNotFound, "tenant_not_found", "tenant not found")
	}

	if tenant.Status != TenantActive {
		return nil, tenantDenial(tenant)
	}

	return &tenant, nil
}

// RequireRootStepUp gates the most sensitive operations: the access must
// belong to a root principal whose step-up code was re-validated on this
// request.
func (e *Engine) RequireRootStepUp(access *Access) error {
	if access == nil {
		return deny(ErrTokenInvalid, http.StatusUnauthorized, "token_invalid", "no authorized access")
	}
	if access.Principal.Role != RoleRoot {
		return deny(ErrRootRequired, http.StatusForbidden, "root_required", "root role required")
	}
	if !access.StepUpVerified {
		d := deny(ErrStepUpCodeRequired, http.StatusForbidden, "stepup_required", "step-up verification required for this operation")
		d.StepUpRequired = true
		return d
	}
	return nil
}

// SetTenantStatus transitions a tenant to the given status. Any transition
// is allowed, but leaving TenantActive requires a reason; it lands in the
// record and in the guidance text shown on subsequent denials. The change
// takes effect on the next authorization, with no grace period.
func (e *Engine) SetTenantStatus(ctx context.Context, tenantID string, status TenantStatus, reason string) (*TenantRecord, error) {
	if e == nil || e.tenantProvider == nil {
		return nil, ErrEngineNotReady
	}
	if status != TenantActive && reason == "" {
		return nil, ErrTenantReasonRequired
	}

	lctx, cancel := e.lookupCtx(ctx)
	_, err := e.tenantProvider.GetTenantByID(lctx, tenantID)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		return nil, ErrTenantNotFound
	}

	if status == TenantActive {
		reason = ""
	}

	updated, err := e.tenantProvider.UpdateTenantStatus(ctx, tenantID, status, reason, e.now())
	if err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventTenantStatus, true, "", RoleStandard, nil, map[string]string{
		"tenant_id": tenantID,
		"status":    status.String(),
		"reason":    reason,
	})

	return &updated, nil
}

func auditSubject(access *Access) string {
	if access == nil {
		return ""
	}
	return access.Principal.PrincipalID
}

func auditRole(access *Access) Role {
	if access == nil {
		return RoleStandard
	}
	return access.Principal.Role
}
