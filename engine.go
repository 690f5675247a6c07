package sentinelgate

import (
	"context"
	"errors"
	"time"

	"github.com/adrisa007/sentinelgate/csrf"
	"github.com/adrisa007/sentinelgate/internal/rate"
	"github.com/adrisa007/sentinelgate/password"
	"github.com/adrisa007/sentinelgate/token"
)

// timeNow is the engine's default clock; tests substitute Engine.now.
var timeNow = time.Now

// Engine is the composition root of the authorization pipeline. Construct
// it through [Builder.Build]; methods are safe for concurrent use
// afterwards.
type Engine struct {
	config            Config
	principalProvider PrincipalProvider
	tenantProvider    TenantProvider
	tokens            *token.Manager
	passwordHash      *password.Hasher
	stepUp            *stepUpManager
	antiForgery       *csrf.Guard
	governor          *rate.Governor
	audit             *auditDispatcher
	metrics           *Metrics

	// now is the pipeline clock. Every time-window decision (step-up
	// validation, anti-forgery age, token expiry at issuance) reads it.
	now func() time.Time
}

// Close flushes the audit dispatcher. The engine must not be used after
// Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// Governor exposes the request rate governor to the middleware chain.
func (e *Engine) Governor() *rate.Governor {
	if e == nil {
		return nil
	}
	return e.governor
}

// AntiForgery exposes the anti-forgery guard to the middleware chain.
func (e *Engine) AntiForgery() *csrf.Guard {
	if e == nil {
		return nil
	}
	return e.antiForgery
}

// ValidateAntiForgery checks an anti-forgery token and maps the guard's
// errors onto the package sentinels, so callers match one error surface.
func (e *Engine) ValidateAntiForgery(tok string) error {
	if e == nil || e.antiForgery == nil {
		return ErrEngineNotReady
	}

	err := e.antiForgery.Validate(tok)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, csrf.ErrMissing):
		return ErrAntiForgeryMissing
	case errors.Is(err, csrf.ErrExpired):
		return ErrAntiForgeryExpired
	default:
		return ErrAntiForgeryInvalid
	}
}

// RateLimitConfig returns the active governor configuration.
func (e *Engine) RateLimitConfig() RateLimitConfig {
	if e == nil {
		return RateLimitConfig{}
	}
	return e.config.RateLimit
}

// AntiForgeryExemptPrefixes returns the mutating-route prefixes that bypass
// anti-forgery validation.
func (e *Engine) AntiForgeryExemptPrefixes() []string {
	if e == nil {
		return nil
	}
	return e.config.AntiForgery.ExemptPrefixes
}

// MetricsSnapshot returns a point-in-time copy of all metrics.
func (e *Engine) MetricsSnapshot() Snapshot {
	if e == nil || e.metrics == nil {
		return Snapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped returns how many audit events were dropped under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricInc increments a pipeline counter. Exported for the middleware
// chain; application code normally has no reason to call it.
func (e *Engine) MetricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeAuthorizeLatency(start time.Time) {
	if e == nil {
		return
	}
	e.metrics.ObserveLatency(e.now().Sub(start))
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, principalID string, role Role, reason error, meta map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp:   e.now(),
		EventType:   eventType,
		PrincipalID: principalID,
		Route:       routeFromContext(ctx),
		IP:          clientIPFromContext(ctx),
		Success:     success,
		Metadata:    meta,
	}
	if role != RoleStandard || principalID != "" {
		event.Role = role.String()
	}
	if reason != nil {
		event.Reason = reason.Error()
	}

	e.audit.Emit(ctx, event)
}

// lookupCtx bounds the single synchronous provider lookup. Expiry fails
// closed in the callers.
func (e *Engine) lookupCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, e.config.Gate.LookupTimeout)
}

const (
	auditEventLogin           = "login"
	auditEventAuthorize       = "authorize"
	auditEventStepUpProvision = "stepup_provision"
	auditEventStepUpConfirm   = "stepup_confirm"
	auditEventTenantStatus    = "tenant_status_change"
)
