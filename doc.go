// Package sentinelgate is an authorization decision pipeline for multi-tenant
// HTTP services: signed stateless session tokens, role-conditional step-up
// authentication (TOTP), tenant lifecycle gating, anti-forgery token
// protection, and fixed-window request rate governance.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// sentinelgate is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (Access, LoginResult, AuditEvent, etc.). Token
// signing lives in the token subpackage, credential hashing in password,
// anti-forgery tokens in csrf, and the Redis-backed request governor under
// internal/rate. Durable storage of principals and tenants is the caller's
// concern, integrated through [PrincipalProvider] and [TenantProvider].
//
// # Step-up re-assertion
//
// Tokens issued to privileged roles carry the one-time code used at login
// verbatim, and [Engine.Authorize] re-validates that code against the
// principal's live secret on every request. The effective lifetime of a
// privileged token is therefore bounded by the TOTP acceptance window, not
// by the token's stated expiry. A captured privileged token goes stale
// within minutes regardless of its exp claim.
//
// # Failure posture
//
// Every ambiguous condition denies. A missing principal, a missing tenant,
// an unreachable counter store, or a lookup timeout all resolve to a
// rejection, never an implicit allow.
package sentinelgate
