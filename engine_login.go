package sentinelgate

import (
	"context"
	"errors"

	"github.com/adrisa007/sentinelgate/internal/rate"
)

// Login authenticates identifier+secret and issues a session token. For
// privileged roles a valid one-time code is mandatory and is embedded
// verbatim into the token, so the gate can re-assert it on every request.
// Unknown identifier, wrong secret, and inactive principal are reported
// with the same indistinct [ErrInvalidCredentials]; the audit trail keeps
// the precise cause.
func (e *Engine) Login(ctx context.Context, identifier, secret, stepUpCode string) (*LoginResult, error) {
	if e == nil || e.principalProvider == nil {
		return nil, ErrEngineNotReady
	}

	if err := e.governor.CheckFailures(ctx, identifier); err != nil {
		if errors.Is(err, rate.ErrLimited) {
			e.metrics.Inc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLogin, false, "", RoleStandard, ErrLoginRateLimited, map[string]string{"identifier": identifier})
			return nil, ErrLoginRateLimited
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	lctx, cancel := e.lookupCtx(ctx)
	principal, err := e.principalProvider.GetPrincipalByIdentifier(lctx, identifier)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		return nil, e.failLogin(ctx, identifier, "", ErrInvalidCredentials)
	}

	match, err := e.passwordHash.Verify(secret, principal.CredentialHash)
	if err != nil || !match {
		return nil, e.failLogin(ctx, identifier, principal.PrincipalID, ErrInvalidCredentials)
	}

	if !principal.Active {
		// Same outward error as a bad secret; the audit event records the
		// real reason.
		e.metrics.Inc(MetricLoginFailure)
		_ = e.governor.RecordFailure(ctx, identifier)
		e.emitAudit(ctx, auditEventLogin, false, principal.PrincipalID, principal.Role, ErrPrincipalInactive, nil)
		return nil, ErrInvalidCredentials
	}

	embedded := ""
	if principal.Role.Privileged() {
		e.metrics.Inc(MetricStepUpRequired)

		if !principal.StepUpEnabled {
			e.metrics.Inc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLogin, false, principal.PrincipalID, principal.Role, ErrStepUpNotEnrolled, nil)
			return nil, ErrStepUpNotEnrolled
		}
		if stepUpCode == "" {
			e.metrics.Inc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLogin, false, principal.PrincipalID, principal.Role, ErrStepUpCodeRequired, nil)
			return nil, ErrStepUpCodeRequired
		}

		ok, err := e.stepUp.VerifyCode(principal.StepUpSecret, stepUpCode, e.now())
		if err != nil {
			return nil, err
		}
		if !ok {
			e.metrics.Inc(MetricStepUpFailure)
			_ = e.governor.RecordFailure(ctx, identifier)
			e.emitAudit(ctx, auditEventLogin, false, principal.PrincipalID, principal.Role, ErrStepUpCodeInvalid, map[string]string{"code": maskCode(stepUpCode)})
			return nil, ErrStepUpCodeInvalid
		}

		e.metrics.Inc(MetricStepUpSuccess)
		embedded = stepUpCode
	}
	// RoleStandard never carries a code, even when the principal happens to
	// have step-up enrolled.

	tok, err := e.tokens.Issue(principal.PrincipalID, embedded)
	if err != nil {
		return nil, err
	}

	_ = e.governor.ResetFailures(ctx, identifier)
	_ = e.principalProvider.TouchLastLogin(ctx, principal.PrincipalID, e.now())

	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLogin, true, principal.PrincipalID, principal.Role, nil, map[string]string{
		"step_up_used": boolString(embedded != ""),
	})

	return &LoginResult{
		Token:      tok,
		StepUpUsed: embedded != "",
		Principal: PrincipalSummary{
			PrincipalID:   principal.PrincipalID,
			Identifier:    principal.Identifier,
			Role:          principal.Role.String(),
			StepUpEnabled: principal.StepUpEnabled,
			TenantID:      principal.TenantID,
		},
	}, nil
}

func (e *Engine) failLogin(ctx context.Context, identifier, principalID string, cause error) error {
	e.metrics.Inc(MetricLoginFailure)
	_ = e.governor.RecordFailure(ctx, identifier)
	e.emitAudit(ctx, auditEventLogin, false, principalID, RoleStandard, cause, map[string]string{"identifier": identifier})
	return cause
}

// ProvisionStepUp generates a fresh TOTP secret for the principal and
// stores it unconfirmed. Enrollment only takes effect after
// [Engine.ConfirmStepUp] validates a first code.
func (e *Engine) ProvisionStepUp(ctx context.Context, principalID string) (*StepUpProvision, error) {
	if e == nil || e.principalProvider == nil {
		return nil, ErrEngineNotReady
	}

	lctx, cancel := e.lookupCtx(ctx)
	principal, err := e.principalProvider.GetPrincipalByID(lctx, principalID)
	cancel()
	if err != nil {
		return nil, ErrPrincipalNotFound
	}

	raw, encoded, err := e.stepUp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	if err := e.principalProvider.UpdateStepUpSecret(ctx, principalID, raw); err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventStepUpProvision, true, principalID, principal.Role, nil, nil)

	return &StepUpProvision{
		Secret: encoded,
		URI:    e.stepUp.ProvisionURI(encoded, principal.Identifier),
	}, nil
}

// ConfirmStepUp validates a first code against the provisioned secret and
// enables enrollment.
func (e *Engine) ConfirmStepUp(ctx context.Context, principalID, code string) error {
	if e == nil || e.principalProvider == nil {
		return ErrEngineNotReady
	}

	lctx, cancel := e.lookupCtx(ctx)
	principal, err := e.principalProvider.GetPrincipalByID(lctx, principalID)
	cancel()
	if err != nil {
		return ErrPrincipalNotFound
	}

	if len(principal.StepUpSecret) == 0 {
		return ErrStepUpNotProvisioned
	}

	ok, err := e.stepUp.VerifyCode(principal.StepUpSecret, code, e.now())
	if err != nil {
		return err
	}
	if !ok {
		e.metrics.Inc(MetricStepUpFailure)
		e.emitAudit(ctx, auditEventStepUpConfirm, false, principalID, principal.Role, ErrStepUpCodeInvalid, map[string]string{"code": maskCode(code)})
		return ErrStepUpCodeInvalid
	}

	if err := e.principalProvider.EnableStepUp(ctx, principalID); err != nil {
		return err
	}

	e.metrics.Inc(MetricStepUpSuccess)
	e.emitAudit(ctx, auditEventStepUpConfirm, true, principalID, principal.Role, nil, nil)

	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
