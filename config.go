package sentinelgate

import (
	"errors"
	"strings"
	"time"
)

// Config aggregates every tuning surface of the engine. Instances are
// cloned on Build and treated as immutable afterwards.
type Config struct {
	Token       TokenConfig
	StepUp      StepUpConfig
	Password    PasswordConfig
	Login       LoginConfig
	RateLimit   RateLimitConfig
	AntiForgery AntiForgeryConfig
	Gate        GateConfig
	Audit       AuditConfig
	Metrics     MetricsConfig
}

// TokenConfig controls session token issuance and verification. Secret and
// Algorithm have no production defaults; Validate rejects an empty secret.
type TokenConfig struct {
	// TTL is the stated token lifetime. For privileged roles the effective
	// lifetime is additionally bounded by the step-up window.
	TTL       time.Duration
	Algorithm string // "HS256" (default), "HS384", "HS512"
	Secret    []byte
	Issuer    string
	Leeway    time.Duration
}

// StepUpConfig controls the TOTP validator.
type StepUpConfig struct {
	Digits    int
	Period    int // seconds per time step
	Skew      int // accepted steps before/after the current one
	Algorithm string
	// Issuer labels the otpauth:// provisioning URI.
	Issuer string
}

// PasswordConfig holds argon2id parameters for PHC-encoded hashes.
type PasswordConfig struct {
	Memory      uint32 // KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// LoginConfig bounds failed-login attempts per identifier.
type LoginConfig struct {
	MaxFailedAttempts int
	Cooldown          time.Duration
}

// RateLimitConfig tunes the fixed-window request governor.
type RateLimitConfig struct {
	Enabled     bool
	RedisPrefix string
	// GlobalLimit applies to every governed route per identity per window.
	GlobalLimit  int
	GlobalWindow time.Duration
	// LoginLimit is the stricter budget for the login route.
	LoginLimit  int
	LoginWindow time.Duration
	// ExemptPrefixes lists route prefixes never counted nor limited.
	ExemptPrefixes []string
}

// AntiForgeryConfig tunes the double-submit token guard.
type AntiForgeryConfig struct {
	Secret     []byte
	MaxAge     time.Duration
	CookieName string
	HeaderName string
	// ExemptPrefixes lists mutating routes that bypass validation
	// (login itself, token-authenticated machine APIs).
	ExemptPrefixes []string
}

// GateConfig bounds the gate's single synchronous lookup.
type GateConfig struct {
	// LookupTimeout caps principal/tenant resolution. On expiry the gate
	// fails closed.
	LookupTimeout time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of applying backpressure; dropped
	// counts are observable via Engine.AuditDropped.
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a baseline configuration. Secrets are deliberately
// empty: both Token.Secret and AntiForgery.Secret must be injected before
// Build, or Validate fails.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL:       30 * time.Minute,
			Algorithm: "HS256",
			Issuer:    "sentinelgate",
			Leeway:    30 * time.Second,
		},
		StepUp: StepUpConfig{
			Digits:    6,
			Period:    30,
			Skew:      1,
			Algorithm: "SHA1",
			Issuer:    "sentinelgate",
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Login: LoginConfig{
			MaxFailedAttempts: 10,
			Cooldown:          time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RedisPrefix:    "sg",
			GlobalLimit:    300,
			GlobalWindow:   time.Minute,
			LoginLimit:     10,
			LoginWindow:    time.Minute,
			ExemptPrefixes: []string{"/health", "/docs", "/static"},
		},
		AntiForgery: AntiForgeryConfig{
			MaxAge:         time.Hour,
			CookieName:     "csrf_token",
			HeaderName:     "X-CSRF-Token",
			ExemptPrefixes: []string{"/login", "/csrf-token", "/health"},
		},
		Gate: GateConfig{
			LookupTimeout: 2 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations that weaken the pipeline. It is called by
// Build; direct construction without it is unsupported.
func (c *Config) Validate() error {
	if len(c.Token.Secret) < 32 {
		return errors.New("token secret must be at least 32 bytes")
	}
	switch strings.ToUpper(c.Token.Algorithm) {
	case "HS256", "HS384", "HS512":
	default:
		return errors.New("unsupported token signing algorithm")
	}
	if c.Token.TTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("invalid token leeway")
	}

	if c.StepUp.Digits < 6 || c.StepUp.Digits > 8 {
		return errors.New("step-up digits must be between 6 and 8")
	}
	if c.StepUp.Period <= 0 {
		return errors.New("step-up period must be positive")
	}
	if c.StepUp.Skew < 0 || c.StepUp.Skew > 2 {
		return errors.New("step-up skew must be between 0 and 2")
	}

	if c.Login.MaxFailedAttempts <= 0 || c.Login.Cooldown <= 0 {
		return errors.New("login attempt budget must be positive")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.GlobalLimit <= 0 || c.RateLimit.LoginLimit <= 0 {
			return errors.New("rate limits must be positive")
		}
		if c.RateLimit.GlobalWindow <= 0 || c.RateLimit.LoginWindow <= 0 {
			return errors.New("rate windows must be positive")
		}
	}

	if len(c.AntiForgery.Secret) < 32 {
		return errors.New("anti-forgery secret must be at least 32 bytes")
	}
	if c.AntiForgery.MaxAge <= 0 {
		return errors.New("anti-forgery max age must be positive")
	}
	if c.AntiForgery.CookieName == "" || c.AntiForgery.HeaderName == "" {
		return errors.New("anti-forgery cookie and header names required")
	}

	if c.Gate.LookupTimeout <= 0 {
		return errors.New("gate lookup timeout must be positive")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	out.AntiForgery.Secret = cloneBytes(cfg.AntiForgery.Secret)
	out.RateLimit.ExemptPrefixes = append([]string(nil), cfg.RateLimit.ExemptPrefixes...)
	out.AntiForgery.ExemptPrefixes = append([]string(nil), cfg.AntiForgery.ExemptPrefixes...)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
