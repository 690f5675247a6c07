package sentinelgate

import (
	"context"
	"time"
)

// Role is the closed set of principal roles. The gate switches over it
// exhaustively; there is no runtime default branch that silently allows.
type Role uint8

const (
	// RoleStandard is an operator-level principal. Step-up authentication
	// is never required, even when the principal has it enrolled.
	RoleStandard Role = iota
	// RoleManager is a privileged principal. Step-up is mandatory.
	RoleManager
	// RoleRoot is the highest-privilege principal. Step-up is mandatory and
	// re-asserted before the most sensitive operations.
	RoleRoot
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleStandard:
		return "STANDARD"
	case RoleManager:
		return "MANAGER"
	case RoleRoot:
		return "ROOT"
	default:
		return "UNKNOWN"
	}
}

// Privileged reports whether the role requires step-up authentication.
func (r Role) Privileged() bool {
	return r == RoleManager || r == RoleRoot
}

// TenantStatus is the five-state tenant lifecycle. Exactly one status holds
// at any time; any status may transition to any other.
type TenantStatus uint8

const (
	// TenantActive is the only status that passes the tenant gate.
	TenantActive TenantStatus = iota
	// TenantInactive marks a tenant temporarily disabled.
	TenantInactive
	// TenantSuspended marks a tenant suspended for cause (billing,
	// compliance). The status reason carries the cause.
	TenantSuspended
	// TenantBlocked marks a tenant blocked permanently.
	TenantBlocked
	// TenantUnderReview marks a tenant awaiting approval.
	TenantUnderReview
)

// String returns the wire name of the status, used in the
// X-Entidade-Status rejection header.
func (s TenantStatus) String() string {
	switch s {
	case TenantActive:
		return "ATIVA"
	case TenantInactive:
		return "INATIVA"
	case TenantSuspended:
		return "SUSPENSA"
	case TenantBlocked:
		return "BLOQUEADA"
	case TenantUnderReview:
		return "EM_ANALISE"
	default:
		return "UNKNOWN"
	}
}

// PrincipalRecord is the full account record returned by
// [PrincipalProvider]. It carries the credential hash, role, activity flag,
// and step-up enrollment state.
type PrincipalRecord struct {
	PrincipalID   string
	Identifier    string
	Role          Role
	Active        bool
	StepUpEnabled bool
	// StepUpSecret is the raw TOTP secret. Present only when enrollment has
	// started; never serialized into summaries or audit events.
	StepUpSecret   []byte
	CredentialHash string
	// TenantID is empty for principals without an organizational binding.
	TenantID  string
	LastLogin time.Time
}

// TenantRecord is the organizational entity a principal belongs to.
type TenantRecord struct {
	TenantID string
	Name     string
	Status   TenantStatus
	// StatusReason is set whenever the tenant leaves TenantActive.
	StatusReason    string
	StatusChangedAt time.Time
}

// PrincipalProvider is the interface callers implement to integrate
// sentinelgate with their principal store. Lookups sit on the hot path of
// every authorization decision and should honor ctx deadlines; the engine
// fails closed when they do not answer in time.
type PrincipalProvider interface {
	GetPrincipalByIdentifier(ctx context.Context, identifier string) (PrincipalRecord, error)
	GetPrincipalByID(ctx context.Context, principalID string) (PrincipalRecord, error)
	// UpdateStepUpSecret stores a provisioned (not yet confirmed) secret.
	UpdateStepUpSecret(ctx context.Context, principalID string, secret []byte) error
	// EnableStepUp flips enrollment on after the first code is confirmed.
	EnableStepUp(ctx context.Context, principalID string) error
	TouchLastLogin(ctx context.Context, principalID string, at time.Time) error
}

// TenantProvider resolves and mutates tenant lifecycle state.
type TenantProvider interface {
	GetTenantByID(ctx context.Context, tenantID string) (TenantRecord, error)
	// UpdateTenantStatus records a transition together with its reason and
	// timestamp. Transitions are unconstrained.
	UpdateTenantStatus(ctx context.Context, tenantID string, status TenantStatus, reason string, at time.Time) (TenantRecord, error)
}

// PrincipalSummary is the secret-free view of a principal returned to
// clients after login.
type PrincipalSummary struct {
	PrincipalID   string `json:"id"`
	Identifier    string `json:"identifier"`
	Role          string `json:"role"`
	StepUpEnabled bool   `json:"step_up_enabled"`
	TenantID      string `json:"tenant_id,omitempty"`
}

// LoginResult is returned by [Engine.Login].
type LoginResult struct {
	Token string
	// StepUpUsed reports whether a one-time code was validated and embedded
	// into the token at issuance.
	StepUpUsed bool
	Principal  PrincipalSummary
}

// StepUpProvision holds the base32 secret and otpauth:// URI returned by
// [Engine.ProvisionStepUp] for enrolling an authenticator app.
type StepUpProvision struct {
	Secret string
	URI    string
}

// Access is the outcome of a successful [Engine.Authorize]. Middleware
// attaches it to the request context.
type Access struct {
	Principal PrincipalRecord
	// Tenant is resolved only for tenant-scoped authorizations.
	Tenant *TenantRecord
	// StepUpVerified is true when the embedded one-time code was
	// re-validated in the current window. Always false for RoleStandard.
	StepUpVerified bool
}

// Summary returns the secret-free view of the authorized principal.
func (a *Access) Summary() PrincipalSummary {
	return PrincipalSummary{
		PrincipalID:   a.Principal.PrincipalID,
		Identifier:    a.Principal.Identifier,
		Role:          a.Principal.Role.String(),
		StepUpEnabled: a.Principal.StepUpEnabled,
		TenantID:      a.Principal.TenantID,
	}
}

// AuthorizeOptions selects optional gate stages.
type AuthorizeOptions struct {
	// TenantScoped enables the tenant status stage: the principal's tenant
	// is resolved and must be TenantActive.
	TenantScoped bool
}
